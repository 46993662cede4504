//go:build reverbdebug

package reverb

const assertionsEnabled = true
