package cbortag

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

const fullDateLayout = "2006-01-02"

// DateTime is a tdate (tag 0): a UTC date-time with whole-second
// precision. Constructing or decoding one drops any fractional seconds,
// so a round trip through DateTime never reintroduces them.
type DateTime time.Time

func NewDateTime(t time.Time) DateTime {
	return DateTime(t.UTC().Truncate(time.Second))
}

func (dt DateTime) Time() time.Time {
	return time.Time(dt)
}

// String returns the canonical wire form: YYYY-MM-DDTHH:MM:SSZ.
func (dt DateTime) String() string {
	return time.Time(dt).UTC().Truncate(time.Second).Format(time.RFC3339)
}

func (dt DateTime) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  TagNumberDateTime,
		Content: dt.String(),
	})
}

func (dt *DateTime) UnmarshalCBOR(data []byte) error {
	s, err := decodeTaggedString(data, TagNumberDateTime)
	if err != nil {
		return err
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrFormat{Tag: TagNumberDateTime, Value: s, Err: err}
	}
	*dt = NewDateTime(t)
	return nil
}

// FullDate is a full-date (tag 1004): a calendar date without a time
// component, encoded as YYYY-MM-DD.
type FullDate time.Time

func NewFullDate(t time.Time) FullDate {
	u := t.UTC()
	return FullDate(time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC))
}

func (fd FullDate) Time() time.Time {
	return time.Time(fd)
}

func (fd FullDate) String() string {
	return time.Time(fd).UTC().Format(fullDateLayout)
}

func (fd FullDate) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  TagNumberFullDate,
		Content: fd.String(),
	})
}

func (fd *FullDate) UnmarshalCBOR(data []byte) error {
	s, err := decodeTaggedString(data, TagNumberFullDate)
	if err != nil {
		return err
	}

	t, err := time.Parse(fullDateLayout, s)
	if err != nil {
		return ErrFormat{Tag: TagNumberFullDate, Value: s, Err: err}
	}
	*fd = NewFullDate(t)
	return nil
}

// decodeTaggedString reads a tagged text string. The tag head is parsed
// by hand: the library pre-validates the content of tags 0 and 1 during
// decode, which would mask the typed tag-number and content-type errors
// this package promises.
func decodeTaggedString(data []byte, want uint64) (string, error) {
	number, headerLen, err := readTagHeader(data)
	if err != nil {
		return "", err
	}
	if number != want {
		return "", ErrTagNumber{Want: want, Got: number}
	}

	var s string
	if err := cbor.Unmarshal(data[headerLen:], &s); err != nil {
		return "", ErrContentType{Tag: number, Content: cbor.RawMessage(data[headerLen:])}
	}
	return s, nil
}

func readTagHeader(data []byte) (number uint64, headerLen int, err error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("empty CBOR data")
	}
	if data[0]>>5 != 6 {
		return 0, 0, fmt.Errorf("expected a CBOR tag, got major type %d", data[0]>>5)
	}

	ai := data[0] & 0x1f
	switch {
	case ai < 24:
		return uint64(ai), 1, nil
	case ai <= 27:
		n := 1 << (ai - 24)
		if len(data) < 1+n {
			return 0, 0, fmt.Errorf("truncated tag header")
		}
		var v uint64
		for _, b := range data[1 : 1+n] {
			v = v<<8 | uint64(b)
		}
		return v, 1 + n, nil
	default:
		return 0, 0, fmt.Errorf("invalid tag header byte 0x%02x", data[0])
	}
}
