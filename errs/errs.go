// Package errs defines the sentinel error kinds surfaced by the PMX
// loading and animation pipeline. Callers compare against these with
// errors.Is; detection sites wrap them with fmt.Errorf and %w to add
// positional detail.
package errs

import "errors"

// Sentinel error kinds. See the error handling design notes for the
// propagation rules: parser errors abort loading and release any
// partially constructed Model; per-frame errors abort only that frame,
// leaving the persisted baseline untouched.
var (
	// EndOfBuffer is returned when a cursor read runs past the slice.
	EndOfBuffer = errors.New("end of buffer")

	// BadSignature is returned when the leading 4 bytes are not "PMX ".
	BadSignature = errors.New("bad signature")

	// UnsupportedVersion is returned for a header version other than 2.0 or 2.1.
	UnsupportedVersion = errors.New("unsupported version")

	// MalformedText is returned when a text codec fails to decode a byte block.
	MalformedText = errors.New("malformed text")

	// OutOfRangeValue is returned when an enum tag or size byte falls
	// outside its permitted set.
	OutOfRangeValue = errors.New("value out of range")

	// DanglingReference is returned when a stored index falls outside
	// its target array once all sections have loaded.
	DanglingReference = errors.New("dangling reference")

	// AllocationFailure is returned when the configured allocation hook
	// returns an error.
	AllocationFailure = errors.New("allocation failure")

	// MorphCycle is returned when applying a group morph would revisit
	// a morph already on the current expansion path.
	MorphCycle = errors.New("morph cycle")

	// InvariantViolated marks a defensive check failing at runtime for
	// a contract the loader already validated; it indicates a library bug.
	InvariantViolated = errors.New("invariant violated")
)
