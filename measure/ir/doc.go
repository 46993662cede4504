// Package ir measures the room-acoustic parameters of an impulse response
// from its Schroeder backward integral (ISO 3382):
//
//   - RT60, T20, T30: reverberation time extrapolated to -60 dB
//   - EDT: early decay time, from the 0 to -10 dB slope
//   - C50, C80: clarity, early-to-late energy ratio in dB
//   - D50, D80: definition, early energy fraction
//   - CenterTime: energy centroid
//
// Metrics are taken from the absolute peak onwards, so leading silence in
// a recorded response does not count as decay.
//
//	a := ir.NewAnalyzer(48000)
//	m, err := a.Analyze(response)
//	fmt.Printf("RT60 = %.2f s, C80 = %.1f dB\n", m.RT60, m.C80)
package ir
