package cbortag

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// TaggedEncodedCBOR is an embedded CBOR value (tag 24): a byte string
// whose content is itself a complete CBOR encoding. It keeps both byte
// forms so that callers which sign or hash over the tagged encoding get
// the exact wire bytes back, while callers which only care about the
// inner value can decode it directly.
type TaggedEncodedCBOR struct {
	taggedBytes   []byte
	untaggedBytes []byte
}

// NewTaggedEncodedCBOR encodes v and wraps the encoding under tag 24.
func NewTaggedEncodedCBOR(v interface{}) (*TaggedEncodedCBOR, error) {
	untagged, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedded value: %w", err)
	}
	return NewTaggedEncodedCBORFromBytes(untagged)
}

// NewTaggedEncodedCBORFromBytes wraps an already-encoded CBOR value
// under tag 24 without re-encoding it.
func NewTaggedEncodedCBORFromBytes(untagged []byte) (*TaggedEncodedCBOR, error) {
	if len(untagged) == 0 {
		return nil, errors.New("empty embedded CBOR bytes")
	}
	tagged, err := cbor.Marshal(cbor.Tag{
		Number:  TagNumberEncodedCBOR,
		Content: untagged,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tag 24: %w", err)
	}
	return &TaggedEncodedCBOR{
		taggedBytes:   tagged,
		untaggedBytes: untagged,
	}, nil
}

// TaggedBytes returns the full tag-24 encoding, the form that gets
// hashed and signed.
func (t *TaggedEncodedCBOR) TaggedBytes() []byte {
	return t.taggedBytes
}

// UntaggedBytes returns the inner encoding without the tag-24 wrapper.
func (t *TaggedEncodedCBOR) UntaggedBytes() []byte {
	return t.untaggedBytes
}

// Decode unmarshals the inner encoding into v.
func (t *TaggedEncodedCBOR) Decode(v interface{}) error {
	if t == nil || len(t.untaggedBytes) == 0 {
		return errors.New("empty embedded CBOR value")
	}
	return cbor.Unmarshal(t.untaggedBytes, v)
}

func (t TaggedEncodedCBOR) MarshalCBOR() ([]byte, error) {
	if len(t.taggedBytes) == 0 {
		return nil, errors.New("empty embedded CBOR value")
	}
	return t.taggedBytes, nil
}

func (t *TaggedEncodedCBOR) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal tag 24: %w", err)
	}
	if tag.Number != TagNumberEncodedCBOR {
		return ErrTagNumber{Want: TagNumberEncodedCBOR, Got: tag.Number}
	}

	var untagged []byte
	if err := cbor.Unmarshal(tag.Content, &untagged); err != nil {
		return ErrContentType{Tag: tag.Number, Content: tag.Content}
	}
	if len(untagged) == 0 {
		return errors.New("empty embedded CBOR value")
	}

	t.taggedBytes = append([]byte(nil), data...)
	t.untaggedBytes = untagged
	return nil
}
