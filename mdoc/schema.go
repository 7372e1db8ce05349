package mdoc

import (
	"fmt"

	"github.com/kokukuma/mdoc-credential/cbormap"
	"github.com/kokukuma/mdoc-credential/cbortag"
	"github.com/kokukuma/mdoc-credential/pkg/hash"
)

// The MSO envelope carries exactly these keys. 18013-5 fixes the key
// set, so unknown keys in a signed structure are rejected rather than
// passed through.
var msoSchema = cbormap.NewSchema("MobileSecurityObjectBytes", cbormap.UnknownKeyReject,
	cbormap.Entry{Key: "version", Required: true, Validate: cbormap.Version()},
	cbormap.Entry{Key: "digestAlgorithm", Required: true, Validate: cbormap.TextOneOf(hash.SHA256, hash.SHA384, hash.SHA512)},
	cbormap.Entry{Key: "valueDigests", Required: true, Validate: cbormap.Map()},
	cbormap.Entry{Key: "deviceKeyInfo", Required: true, Validate: cbormap.Map()},
	cbormap.Entry{Key: "docType", Required: true, Validate: cbormap.Text()},
	cbormap.Entry{Key: "validityInfo", Required: true, Validate: validityInfoSchema.Field()},
)

var validityInfoSchema = cbormap.NewSchema("validityInfo", cbormap.UnknownKeyReject,
	cbormap.Entry{Key: "signed", Required: true, Validate: cbormap.DateTime()},
	cbormap.Entry{Key: "validFrom", Required: true, Validate: cbormap.DateTime()},
	cbormap.Entry{Key: "validUntil", Required: true, Validate: cbormap.DateTime()},
	cbormap.Entry{Key: "expectedUpdate", Validate: cbormap.Optional(cbormap.DateTime())},
)

// DecodeMobileSecurityObject unwraps MobileSecurityObjectBytes (tag 24)
// and validates the MSO structure before decoding it into its typed
// form. Schema failures come back aggregated, one message per distinct
// cause.
func DecodeMobileSecurityObject(payload []byte) (*MobileSecurityObject, error) {
	var wrapped cbortag.TaggedEncodedCBOR
	if err := wrapped.UnmarshalCBOR(payload); err != nil {
		return nil, fmt.Errorf("failed to unwrap MobileSecurityObjectBytes: %w", err)
	}

	ordered, err := cbormap.DecodeOrderedMap(wrapped.UntaggedBytes())
	if err != nil {
		return nil, fmt.Errorf("failed to decode MSO map: %w", err)
	}
	if _, err := msoSchema.Validate(ordered); err != nil {
		return nil, fmt.Errorf("invalid MSO structure: %w", err)
	}

	var mso MobileSecurityObject
	if err := wrapped.Decode(&mso); err != nil {
		return nil, fmt.Errorf("failed to unmarshal MSO: %w", err)
	}
	return &mso, nil
}

func digestBytes(data []byte, alg string) ([]byte, error) {
	digest, err := hash.Digest(data, alg)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate digest: %w", err)
	}
	return digest, nil
}
