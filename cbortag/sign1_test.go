package cbortag

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func validTuple() Sign1Tuple {
	return Sign1Tuple{
		Protected:   []byte{0xa1, 0x01, 0x26}, // {1: -7}
		Unprotected: map[interface{}]interface{}{},
		Payload:     []byte("payload"),
		Signature:   []byte("signature"),
	}
}

func TestSign1TupleRoundTrip(t *testing.T) {
	tuple := validTuple()

	data, err := cbor.Marshal(tuple)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	// Untagged form is a bare array.
	if data[0]>>5 != 4 {
		t.Errorf("expected major type 4, got %d", data[0]>>5)
	}

	var decoded Sign1Tuple
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !bytes.Equal(decoded.Protected, tuple.Protected) {
		t.Error("protected header changed through round trip")
	}
	if !bytes.Equal(decoded.Payload, tuple.Payload) {
		t.Error("payload changed through round trip")
	}
	if !bytes.Equal(decoded.Signature, tuple.Signature) {
		t.Error("signature changed through round trip")
	}
}

func TestSign1TupleTagged(t *testing.T) {
	tuple := validTuple()

	data, err := tuple.MarshalTaggedCBOR()
	if err != nil {
		t.Fatalf("failed to marshal tagged: %v", err)
	}
	// Tagged form carries tag 18: major type 6, additional info 18.
	if data[0] != 0xd2 {
		t.Errorf("expected leading byte 0xd2, got 0x%02x", data[0])
	}

	var decoded Sign1Tuple
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal tagged form: %v", err)
	}
	if !bytes.Equal(decoded.Payload, tuple.Payload) {
		t.Error("payload changed through tagged round trip")
	}
}

func TestSign1TupleWrongTagNumber(t *testing.T) {
	tuple := validTuple()
	untagged, err := tuple.MarshalCBOR()
	if err != nil {
		t.Fatal(err)
	}
	data, err := cbor.Marshal(cbor.RawTag{Number: 17, Content: untagged})
	if err != nil {
		t.Fatal(err)
	}

	var decoded Sign1Tuple
	err = cbor.Unmarshal(data, &decoded)

	var tagErr ErrTagNumber
	if !errors.As(err, &tagErr) {
		t.Fatalf("expected ErrTagNumber, got %v", err)
	}
	if tagErr.Want != TagNumberSign1 || tagErr.Got != 17 {
		t.Errorf("ErrTagNumber = %+v, want {Want:18 Got:17}", tagErr)
	}
}

func TestSign1TupleArity(t *testing.T) {
	tests := []struct {
		name     string
		elements []interface{}
		wantLen  int
	}{
		{
			name: "three elements",
			elements: []interface{}{
				[]byte{0xa0}, map[interface{}]interface{}{}, []byte("payload"),
			},
			wantLen: 3,
		},
		{
			name: "five elements",
			elements: []interface{}{
				[]byte{0xa0}, map[interface{}]interface{}{}, []byte("payload"), []byte("sig"), []byte("extra"),
			},
			wantLen: 5,
		},
		{
			name:     "zero elements",
			elements: []interface{}{},
			wantLen:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := cbor.Marshal(tt.elements)
			if err != nil {
				t.Fatal(err)
			}

			var decoded Sign1Tuple
			err = cbor.Unmarshal(data, &decoded)

			var lenErr ErrTupleLength
			if !errors.As(err, &lenErr) {
				t.Fatalf("expected ErrTupleLength, got %v", err)
			}
			if lenErr.Got != tt.wantLen {
				t.Errorf("ErrTupleLength.Got = %d, want %d", lenErr.Got, tt.wantLen)
			}
		})
	}
}

func TestSign1TupleDetached(t *testing.T) {
	tuple := validTuple()
	tuple.Payload = nil

	data, err := cbor.Marshal(tuple)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded Sign1Tuple
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !decoded.Detached() {
		t.Error("expected detached payload after round trip")
	}

	// An attached empty payload is not the same as detached.
	if (&Sign1Tuple{Payload: []byte("x")}).Detached() {
		t.Error("attached payload reported as detached")
	}
}
