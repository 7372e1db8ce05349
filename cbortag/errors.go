package cbortag

import "fmt"

// ErrFormat is returned when the content of a date tag does not parse as
// a valid date or date-time string.
type ErrFormat struct {
	Tag   uint64
	Value string
	Err   error
}

func (e ErrFormat) Error() string {
	return fmt.Sprintf("tag %d: invalid format %q: %v", e.Tag, e.Value, e.Err)
}

func (e ErrFormat) Unwrap() error {
	return e.Err
}

// ErrTagNumber is returned when a decoded value carries a different tag
// number than the target type expects.
type ErrTagNumber struct {
	Want uint64
	Got  uint64
}

func (e ErrTagNumber) Error() string {
	return fmt.Sprintf("unexpected tag number: want %d, got %d", e.Want, e.Got)
}

// ErrContentType is returned when a tag carries the right number but the
// wrong inner shape, e.g. tag 24 around something other than a byte string.
type ErrContentType struct {
	Tag     uint64
	Content interface{}
}

func (e ErrContentType) Error() string {
	return fmt.Sprintf("tag %d: unexpected content type %T", e.Tag, e.Content)
}

// ErrTupleLength is returned when a COSE_Sign1 structure does not have
// exactly four elements.
type ErrTupleLength struct {
	Got int
}

func (e ErrTupleLength) Error() string {
	return fmt.Sprintf("COSE_Sign1 must have 4 elements, got %d", e.Got)
}
