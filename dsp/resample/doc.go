// Package resample provides rational sample-rate conversion using polyphase
// FIR filtering with anti-aliasing defaults.
//
// Quality modes:
//
//	mode            taps/phase   nominal stopband
//	QualityFast     16           ~55 dB
//	QualityBalanced 32           ~75 dB
//	QualityBest     64           ~90 dB
//
// A Resampler streams: every Process call continues where the previous one
// stopped, and output lags input by the prototype's group delay (Delay).
// ResampleAligned converts a whole signal in one call with that delay
// removed, which is what impulse responses need.
package resample
