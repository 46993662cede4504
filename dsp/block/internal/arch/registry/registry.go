// Package registry holds the implementation table for the block arithmetic
// kernels.
//
// Architecture packages register an OpEntry from init(). The block package
// resolves the highest-priority entry supported by the running CPU once, on
// first use, and calls through the selected function pointers afterwards.
package registry

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// OpEntry is one registered kernel implementation.
//
// Scale fast paths (scale == 1, scale == 0) are handled by the caller, so
// every function here may assume a general scale factor.
type OpEntry struct {
	// Name identifies the implementation (e.g. "generic", "vecmath").
	Name string

	// SIMDLevel is the instruction set required by this implementation.
	SIMDLevel cpu.SIMDLevel

	// Priority orders compatible entries; higher wins.
	Priority int

	// CopyWithScale computes dst[i] = src[i] * scale.
	CopyWithScale func(dst, src []float64, scale float64)

	// AddWithScale computes dst[i] += src[i] * scale.
	AddWithScale func(dst, src []float64, scale float64)

	// Add computes dst[i] += src[i].
	Add func(dst, src []float64)

	// InPlaceScale computes buf[i] *= scale.
	InPlaceScale func(buf []float64, scale float64)

	// SumOfSquares returns sum(x[i]^2).
	SumOfSquares func(x []float64) float64

	// PeakValue returns max(|x[i]|).
	PeakValue func(x []float64) float64

	// ComplexMultiply computes dst[i] = a[i] * b[i].
	ComplexMultiply func(dst, a, b []complex128)
}

// complete reports whether every kernel slot is populated.
func (e *OpEntry) complete() bool {
	return e.CopyWithScale != nil && e.AddWithScale != nil && e.Add != nil &&
		e.InPlaceScale != nil && e.SumOfSquares != nil && e.PeakValue != nil &&
		e.ComplexMultiply != nil
}

// OpRegistry stores the available implementations.
type OpRegistry struct {
	mu      sync.RWMutex
	entries []OpEntry
	sorted  bool
}

// Global is the registry used by the block package.
var Global = &OpRegistry{}

// Register adds an implementation entry. Entries missing a kernel are
// rejected with a panic, since a partially populated table would fail at
// render time instead of at start-up.
func (r *OpRegistry) Register(entry OpEntry) {
	if !entry.complete() {
		panic("registry: incomplete kernel entry " + entry.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	r.sorted = false
}

// Lookup returns the highest-priority implementation supported by features,
// or nil when nothing is registered.
func (r *OpRegistry) Lookup(features cpu.Features) *OpEntry {
	r.mu.Lock()
	if !r.sorted {
		r.sortByPriority()
		r.sorted = true
	}
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		entry := &r.entries[i]
		if supports(features, entry.SIMDLevel) {
			return entry
		}
	}

	return nil
}

// supports reports whether features can run kernels built for level.
func supports(features cpu.Features, level cpu.SIMDLevel) bool {
	if features.ForceGeneric {
		return level == cpu.SIMDNone
	}

	switch level {
	case cpu.SIMDNone:
		return true
	case cpu.SIMDSSE2:
		return features.HasSSE2
	case cpu.SIMDAVX2:
		return features.HasAVX2
	case cpu.SIMDNEON:
		return features.HasNEON
	default:
		return false
	}
}

// sortByPriority orders entries by descending priority. r.mu must be held.
func (r *OpRegistry) sortByPriority() {
	for i := 1; i < len(r.entries); i++ {
		key := r.entries[i]
		j := i - 1
		for j >= 0 && r.entries[j].Priority < key.Priority {
			r.entries[j+1] = r.entries[j]
			j--
		}
		r.entries[j+1] = key
	}
}

// ListEntries returns a copy of the registered entries.
func (r *OpRegistry) ListEntries() []OpEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]OpEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Reset clears all entries. Intended for tests.
func (r *OpRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = nil
	r.sorted = false
}
