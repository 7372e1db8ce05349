package mdoc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/veraison/go-cose"

	"github.com/kokukuma/mdoc-credential/cbortag"
)

// Claim is one data element to be committed into a credential.
type Claim struct {
	Identifier ElementIdentifier
	Value      ElementValue
}

// Claims maps each namespace to its claims in disclosure order.
type Claims map[NameSpace][]Claim

// Validity is the requested validity window of the MSO. ValidFrom equal
// to ValidUntil issues a credential without expiration.
type Validity struct {
	ValidFrom      time.Time
	ValidUntil     time.Time
	ExpectedUpdate *time.Time
}

type IssuerOption func(*Issuer)

// WithClock overrides the clock used for the signed timestamp.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithRand overrides the randomness source for salts and signatures.
func WithRand(r io.Reader) IssuerOption {
	return func(i *Issuer) {
		i.rand = r
	}
}

// WithSaltLength overrides the salt length. 18013-5 requires at least
// 16 bytes.
func WithSaltLength(n int) IssuerOption {
	return func(i *Issuer) {
		i.saltLength = n
	}
}

func WithVersion(version string) IssuerOption {
	return func(i *Issuer) {
		i.version = version
	}
}

// Issuer builds and signs Mobile Security Objects. The signing key and
// certificate chain are fixed at construction; randomness and clock are
// injectable for tests.
type Issuer struct {
	key        *ecdsa.PrivateKey
	chainDER   [][]byte
	now        func() time.Time
	rand       io.Reader
	saltLength int
	version    string
}

func NewIssuer(key *ecdsa.PrivateKey, chainDER [][]byte, opts ...IssuerOption) *Issuer {
	issuer := &Issuer{
		key:        key,
		chainDER:   chainDER,
		now:        time.Now,
		rand:       rand.Reader,
		saltLength: 16,
		version:    "1.0",
	}
	for _, opt := range opts {
		opt(issuer)
	}
	return issuer
}

// Issue builds the salted digests for every claim, assembles and signs
// the MSO, and returns the IssuerSigned structure ready for disclosure.
// deviceKey may be nil when no device binding is requested; the MSO
// then carries an empty deviceKeyInfo map.
func (i *Issuer) Issue(docType DocType, claims Claims, deviceKey *COSEKey, digestAlg string, validity Validity) (*IssuerSigned, error) {
	nameSpaces := IssuerNameSpaces{}
	valueDigests := ValueDigests{}

	for ns, nsClaims := range claims {
		items := make([]IssuerSignedItemBytes, 0, len(nsClaims))
		digests := DigestIDs{}

		// digestIDs are unique per namespace, assigned from 0 in
		// disclosure order.
		for id, claim := range nsClaims {
			salt := make([]byte, i.saltLength)
			if _, err := io.ReadFull(i.rand, salt); err != nil {
				return nil, fmt.Errorf("failed to generate salt: %w", err)
			}

			item := IssuerSignedItem{
				DigestID:          DigestID(id),
				Random:            salt,
				ElementIdentifier: claim.Identifier,
				ElementValue:      claim.Value,
			}

			itemBytes, err := cbortag.NewTaggedEncodedCBOR(item)
			if err != nil {
				return nil, fmt.Errorf("failed to wrap issuer signed item: %w", err)
			}

			// The digest covers the tag-24 bytes, the exact sequence
			// transmitted later.
			digest, err := digestBytes(itemBytes.TaggedBytes(), digestAlg)
			if err != nil {
				return nil, err
			}

			items = append(items, *itemBytes)
			digests[DigestID(id)] = digest
		}

		nameSpaces[ns] = items
		valueDigests[ns] = digests
	}

	validityInfo := ValidityInfo{
		Signed:     cbortag.NewDateTime(i.now()),
		ValidFrom:  cbortag.NewDateTime(validity.ValidFrom),
		ValidUntil: cbortag.NewDateTime(validity.ValidUntil),
	}
	if validity.ExpectedUpdate != nil {
		expected := cbortag.NewDateTime(*validity.ExpectedUpdate)
		validityInfo.ExpectedUpdate = &expected
	}

	mso := MobileSecurityObject{
		Version:         i.version,
		DigestAlgorithm: digestAlg,
		ValueDigests:    valueDigests,
		DeviceKeyInfo:   DeviceKeyInfo{DeviceKey: deviceKey},
		DocType:         docType,
		ValidityInfo:    validityInfo,
	}

	msoBytes, err := cbortag.NewTaggedEncodedCBOR(mso)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap MSO: %w", err)
	}

	issuerAuth, err := i.sign(msoBytes.TaggedBytes())
	if err != nil {
		return nil, err
	}

	return &IssuerSigned{
		NameSpaces: nameSpaces,
		IssuerAuth: *issuerAuth,
	}, nil
}

func (i *Issuer) sign(payload []byte) (*cbortag.Sign1Tuple, error) {
	alg, err := algorithmForKey(i.key)
	if err != nil {
		return nil, err
	}

	signer, err := cose.NewSigner(alg, i.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	msg := cose.UntaggedSign1Message{
		Headers: cose.Headers{
			Protected: cose.ProtectedHeader{
				cose.HeaderLabelAlgorithm: alg,
			},
			Unprotected: cose.UnprotectedHeader{
				cose.HeaderLabelX5Chain: i.chainDER,
			},
		},
		Payload: payload,
	}

	if err := msg.Sign(i.rand, nil, signer); err != nil {
		return nil, fmt.Errorf("failed to sign MSO: %w", err)
	}

	return cbortag.NewSign1Tuple(&msg)
}

func algorithmForKey(key *ecdsa.PrivateKey) (cose.Algorithm, error) {
	if key == nil {
		return 0, fmt.Errorf("signing key is nil")
	}
	switch key.Curve {
	case elliptic.P256():
		return cose.AlgorithmES256, nil
	case elliptic.P384():
		return cose.AlgorithmES384, nil
	case elliptic.P521():
		return cose.AlgorithmES512, nil
	default:
		return 0, fmt.Errorf("unsupported curve: %v", key.Curve)
	}
}
