package cbormap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// OrderedMap is a string-keyed map that iterates in insertion order.
// It is the input and output shape of the schema engine: decoding from
// CBOR preserves the wire order of the keys, and MarshalCBOR re-emits
// entries in the held order.
type OrderedMap struct {
	keys   []string
	values map[string]interface{}
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]interface{})}
}

// Set inserts or replaces a key. A new key is appended to the order.
func (m *OrderedMap) Set(key string, value interface{}) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *OrderedMap) Get(key string) (interface{}, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys returns the keys in iteration order.
func (m *OrderedMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *OrderedMap) Len() int {
	return len(m.keys)
}

func (m *OrderedMap) MarshalCBOR() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(encodeMapHeader(uint64(len(m.keys))))
	for _, k := range m.keys {
		kb, err := cbor.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal key %q: %w", k, err)
		}
		buf.Write(kb)

		vb, err := cbor.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal value of %q: %w", k, err)
		}
		buf.Write(vb)
	}
	return buf.Bytes(), nil
}

func (m *OrderedMap) UnmarshalCBOR(data []byte) error {
	decoded, err := DecodeOrderedMap(data)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// DecodeOrderedMap decodes a CBOR map while preserving the order of its
// keys. fxamacker/cbor decodes maps into unordered Go maps, so the map
// header is read here and every contained item is handed back to the
// library's decoder. Keys must be text strings.
func DecodeOrderedMap(data []byte) (*OrderedMap, error) {
	if len(data) == 0 {
		return nil, errors.New("empty CBOR data")
	}
	if data[0]>>5 != 5 {
		return nil, fmt.Errorf("expected a CBOR map, got major type %d", data[0]>>5)
	}

	count, indefinite, headerLen, err := readMapHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[headerLen:]
	dec := cbor.NewDecoder(bytes.NewReader(body))
	m := NewOrderedMap()

	for i := uint64(0); ; i++ {
		if indefinite {
			off := dec.NumBytesRead()
			if off >= len(body) {
				return nil, errors.New("unterminated indefinite-length map")
			}
			if body[off] == 0xff {
				break
			}
		} else if i >= count {
			break
		}

		var key string
		if err := dec.Decode(&key); err != nil {
			return nil, fmt.Errorf("failed to decode map key %d: %w", i, err)
		}
		// Silently merging repeated keys would drop entries from a
		// structure this engine exists to validate.
		if m.Has(key) {
			return nil, fmt.Errorf("duplicate map key %q", key)
		}
		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode value of %q: %w", key, err)
		}
		m.Set(key, value)
	}
	return m, nil
}

func readMapHeader(data []byte) (count uint64, indefinite bool, headerLen int, err error) {
	ai := data[0] & 0x1f
	switch {
	case ai < 24:
		return uint64(ai), false, 1, nil
	case ai == 24, ai == 25, ai == 26, ai == 27:
		n := 1 << (ai - 24)
		if len(data) < 1+n {
			return 0, false, 0, errors.New("truncated map header")
		}
		var v uint64
		for _, b := range data[1 : 1+n] {
			v = v<<8 | uint64(b)
		}
		return v, false, 1 + n, nil
	case ai == 31:
		return 0, true, 1, nil
	default:
		return 0, false, 0, fmt.Errorf("invalid map header byte 0x%02x", data[0])
	}
}

func encodeMapHeader(n uint64) []byte {
	switch {
	case n < 24:
		return []byte{0xa0 | byte(n)}
	case n <= 0xff:
		return []byte{0xb8, byte(n)}
	case n <= 0xffff:
		b := make([]byte, 3)
		b[0] = 0xb9
		binary.BigEndian.PutUint16(b[1:], uint16(n))
		return b
	case n <= 0xffffffff:
		b := make([]byte, 5)
		b[0] = 0xba
		binary.BigEndian.PutUint32(b[1:], uint32(n))
		return b
	default:
		b := make([]byte, 9)
		b[0] = 0xbb
		binary.BigEndian.PutUint64(b[1:], n)
		return b
	}
}
