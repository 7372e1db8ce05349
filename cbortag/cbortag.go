// Package cbortag implements the CBOR tagged values used by ISO/IEC
// 18013-5 data structures: tdate (tag 0), full-date (tag 1004), embedded
// CBOR (tag 24) and the COSE_Sign1 four-tuple (tag 18).
//
// Every type round-trips losslessly through its MarshalCBOR/UnmarshalCBOR
// pair, and decoding rejects values with the wrong tag number, the wrong
// inner shape or the wrong arity instead of coercing them.
package cbortag

// RFC 8949 / RFC 8943 / RFC 9052 tag numbers.
const (
	TagNumberDateTime    = 0
	TagNumberSign1       = 18
	TagNumberEncodedCBOR = 24
	TagNumberFullDate    = 1004
)
