package cbortag

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"
)

// Sign1Tuple is the COSE_Sign1 four-tuple
// [protected, unprotected, payload, signature]. Depending on the
// embedding context the tuple appears tagged with 18 or as a bare
// 4-array; decoding accepts both. A nil Payload means the payload is
// detached and has to be supplied out of band, which is a legal state
// here, not a decode error.
type Sign1Tuple struct {
	Protected   []byte
	Unprotected map[interface{}]interface{}
	Payload     []byte
	Signature   []byte
}

// Detached reports whether the payload is carried out of band.
func (s *Sign1Tuple) Detached() bool {
	return s.Payload == nil
}

func (s Sign1Tuple) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal([]interface{}{
		s.Protected,
		s.Unprotected,
		s.Payload,
		s.Signature,
	})
}

// MarshalTaggedCBOR encodes the tuple under tag 18 for contexts that
// require the tagged form.
func (s Sign1Tuple) MarshalTaggedCBOR() ([]byte, error) {
	untagged, err := s.MarshalCBOR()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(cbor.RawTag{
		Number:  TagNumberSign1,
		Content: untagged,
	})
}

func (s *Sign1Tuple) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty COSE_Sign1 bytes")
	}

	raw := cbor.RawMessage(data)

	// Major type 6 means the tuple is tagged; anything else is decoded
	// as a bare array.
	if data[0]>>5 == 6 {
		var tag cbor.RawTag
		if err := cbor.Unmarshal(data, &tag); err != nil {
			return fmt.Errorf("failed to unmarshal COSE_Sign1 tag: %w", err)
		}
		if tag.Number != TagNumberSign1 {
			return ErrTagNumber{Want: TagNumberSign1, Got: tag.Number}
		}
		raw = tag.Content
	}

	var items []cbor.RawMessage
	if err := cbor.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("failed to unmarshal COSE_Sign1 array: %w", err)
	}
	if len(items) != 4 {
		return ErrTupleLength{Got: len(items)}
	}

	var decoded Sign1Tuple
	if err := cbor.Unmarshal(items[0], &decoded.Protected); err != nil {
		return fmt.Errorf("failed to unmarshal protected header bytes: %w", err)
	}
	if err := cbor.Unmarshal(items[1], &decoded.Unprotected); err != nil {
		return fmt.Errorf("failed to unmarshal unprotected header map: %w", err)
	}
	if err := cbor.Unmarshal(items[2], &decoded.Payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if err := cbor.Unmarshal(items[3], &decoded.Signature); err != nil {
		return fmt.Errorf("failed to unmarshal signature: %w", err)
	}

	*s = decoded
	return nil
}

// Sign1Message converts the tuple into a go-cose message for signature
// verification.
func (s *Sign1Tuple) Sign1Message() (*cose.UntaggedSign1Message, error) {
	data, err := s.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal COSE_Sign1 tuple: %w", err)
	}
	var msg cose.UntaggedSign1Message
	if err := msg.UnmarshalCBOR(data); err != nil {
		return nil, fmt.Errorf("failed to convert to COSE_Sign1 message: %w", err)
	}
	return &msg, nil
}

// NewSign1Tuple converts a go-cose message into the four-tuple form.
func NewSign1Tuple(msg *cose.UntaggedSign1Message) (*Sign1Tuple, error) {
	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal COSE_Sign1 message: %w", err)
	}
	var tuple Sign1Tuple
	if err := tuple.UnmarshalCBOR(data); err != nil {
		return nil, err
	}
	return &tuple, nil
}
