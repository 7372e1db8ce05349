package mdoc

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/kokukuma/mdoc-credential/cbortag"
)

// DeviceAuthenticationBytes builds the canonical structure a holder
// signs over when binding namespaces to a transaction:
//
//	tag24(["DeviceAuthentication", sessionTranscript, docType, tag24(nameSpaces)])
//
// sessionTranscript is the CBOR encoding of the transcript value; if it
// arrives already wrapped in tag 24 it is unwrapped first, so the final
// encoding embeds the transcript structure itself rather than a nested
// byte string. deviceNameSpaces is either the namespace map or its
// pre-encoded CBOR bytes. The output byte-matches any independent
// implementation computing the same structure.
func DeviceAuthenticationBytes(sessionTranscript []byte, docType DocType, deviceNameSpaces interface{}) ([]byte, error) {
	if len(sessionTranscript) == 0 {
		return nil, fmt.Errorf("session transcript is empty")
	}

	transcript := cbor.RawMessage(sessionTranscript)
	var wrapped cbortag.TaggedEncodedCBOR
	if err := wrapped.UnmarshalCBOR(sessionTranscript); err == nil {
		transcript = cbor.RawMessage(wrapped.UntaggedBytes())
	}

	nameSpaceBytes, err := wrapDeviceNameSpaces(deviceNameSpaces)
	if err != nil {
		return nil, err
	}

	deviceAuthentication := []interface{}{
		"DeviceAuthentication",
		transcript,
		docType,
		nameSpaceBytes,
	}

	embedded, err := cbortag.NewTaggedEncodedCBOR(deviceAuthentication)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal device authentication: %w", err)
	}
	return embedded.TaggedBytes(), nil
}

func wrapDeviceNameSpaces(deviceNameSpaces interface{}) (*cbortag.TaggedEncodedCBOR, error) {
	switch v := deviceNameSpaces.(type) {
	case *cbortag.TaggedEncodedCBOR:
		return v, nil
	case []byte:
		return cbortag.NewTaggedEncodedCBORFromBytes(v)
	case cbor.RawMessage:
		return cbortag.NewTaggedEncodedCBORFromBytes(v)
	case nil:
		// No device-signed elements: the empty map.
		return cbortag.NewTaggedEncodedCBOR(DeviceNameSpaces{})
	default:
		return cbortag.NewTaggedEncodedCBOR(v)
	}
}
