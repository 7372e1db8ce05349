package cbormap

import (
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestOrderedMapPreservesWireOrder(t *testing.T) {
	// Two encodings of the same logical map with different key order.
	forward := NewOrderedMap()
	forward.Set("version", "1.0")
	forward.Set("docType", "org.iso.18013.5.1.mDL")
	forward.Set("status", uint64(0))

	reverse := NewOrderedMap()
	reverse.Set("status", uint64(0))
	reverse.Set("docType", "org.iso.18013.5.1.mDL")
	reverse.Set("version", "1.0")

	for _, m := range []*OrderedMap{forward, reverse} {
		data, err := cbor.Marshal(m)
		if err != nil {
			t.Fatalf("failed to marshal: %v", err)
		}

		decoded, err := DecodeOrderedMap(data)
		if err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if !reflect.DeepEqual(decoded.Keys(), m.Keys()) {
			t.Errorf("wire order not preserved: got %v, want %v", decoded.Keys(), m.Keys())
		}
	}
}

func TestOrderedMapSetReplacesInPlace(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	if !reflect.DeepEqual(m.Keys(), []string{"a", "b"}) {
		t.Errorf("keys = %v, want [a b]", m.Keys())
	}
	v, _ := m.Get("a")
	if v != 3 {
		t.Errorf("value of a = %v, want 3", v)
	}
}

func TestDecodeOrderedMapIndefiniteLength(t *testing.T) {
	// {_ "a": 1, "b": 2}
	data := []byte{0xbf, 0x61, 'a', 0x01, 0x61, 'b', 0x02, 0xff}

	decoded, err := DecodeOrderedMap(data)
	if err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !reflect.DeepEqual(decoded.Keys(), []string{"a", "b"}) {
		t.Errorf("keys = %v, want [a b]", decoded.Keys())
	}
}

func TestDecodeOrderedMapErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{
			name:    "empty input",
			data:    nil,
			wantErr: "empty CBOR data",
		},
		{
			name:    "not a map",
			data:    []byte{0x83, 0x01, 0x02, 0x03}, // [1, 2, 3]
			wantErr: "expected a CBOR map",
		},
		{
			name:    "non-string key",
			data:    []byte{0xa1, 0x01, 0x02}, // {1: 2}
			wantErr: "failed to decode map key",
		},
		{
			name:    "unterminated indefinite map",
			data:    []byte{0xbf, 0x61, 'a', 0x01},
			wantErr: "unterminated indefinite-length map",
		},
		{
			name:    "duplicate key",
			data:    []byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02}, // {"a": 1, "a": 2}
			wantErr: `duplicate map key "a"`,
		},
		{
			name:    "duplicate key in indefinite map",
			data:    []byte{0xbf, 0x61, 'a', 0x01, 0x61, 'a', 0x02, 0xff},
			wantErr: `duplicate map key "a"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOrderedMap(tt.data)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOrderedMapMarshalRoundTrip(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", "last-first")
	m.Set("a", "first-last")

	data, err := cbor.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var decoded OrderedMap
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded.Keys(), []string{"z", "a"}) {
		t.Errorf("keys = %v, want [z a]", decoded.Keys())
	}
}
