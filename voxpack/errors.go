package voxpack

import "errors"

// Error kinds surfaced by the input and grouping layers.  Errors wrap these
// sentinels with context (row and slice indices where applicable) so callers
// can classify with errors.Is.
var (
	// ErrHeaderFormat is returned for a malformed header line: wrong token
	// count or a token that doesn't parse as an integer.
	ErrHeaderFormat = errors.New("malformed header line")

	// ErrHeaderInvalid is returned when a dimension is non-positive or a
	// divisibility constraint between grid and parent extents is violated.
	ErrHeaderInvalid = errors.New("invalid header dimensions")

	// ErrNoLabels is returned when the label table is empty.
	ErrNoLabels = errors.New("empty label table")

	// ErrLabelFormat is returned for a label line missing its comma or tag.
	ErrLabelFormat = errors.New("malformed label line")

	// ErrUnknownTag is returned when a row contains a byte absent from the
	// label table.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrRowLength is returned when a row has fewer visible bytes than the
	// grid width.
	ErrRowLength = errors.New("row length mismatch")

	// ErrTruncatedStream is returned on EOF in the middle of an expected
	// slice when the depth is finite.
	ErrTruncatedStream = errors.New("truncated slice stream")

	// ErrInternalInvariant indicates a strategy produced a cuboid violating
	// a core invariant.  Only raised when invariant checking is enabled.
	ErrInternalInvariant = errors.New("internal invariant violation")
)

// IsInputErr returns true for error kinds caused by bad input rather than
// an internal failure.  The CLI maps these to exit code 2.
func IsInputErr(err error) bool {
	for _, kind := range []error{
		ErrHeaderFormat, ErrHeaderInvalid, ErrNoLabels, ErrLabelFormat,
		ErrUnknownTag, ErrRowLength, ErrTruncatedStream,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
