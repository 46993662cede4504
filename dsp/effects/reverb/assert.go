package reverb

import "fmt"

// checkBounds reports whether ok holds. A violated render-path precondition
// panics in builds tagged reverbdebug; otherwise the caller drops the
// quantum.
func checkBounds(ok bool, format string, args ...any) bool {
	if !ok && assertionsEnabled {
		panic("reverb: " + fmt.Sprintf(format, args...))
	}
	return ok
}
