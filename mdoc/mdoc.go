// Package mdoc issues and verifies mobile documents according to the
// ISO/IEC 18013-5:2021 standard.
package mdoc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"github.com/kokukuma/mdoc-credential/cbortag"
)

type DocType string

type NameSpace string

type ElementIdentifier string

type ElementValue interface{}

type DeviceResponse struct {
	Version        string          `cbor:"version"`
	Documents      []Document      `cbor:"documents,omitempty"`
	DocumentErrors []DocumentError `cbor:"documentErrors,omitempty"`
	Status         uint            `cbor:"status"`
}

func (d DeviceResponse) GetDocument(docType DocType) (*Document, error) {
	for _, doc := range d.Documents {
		if doc.DocType == docType {
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("failed to find doc: doctype=%s", docType)
}

type Document struct {
	DocType      DocType       `cbor:"docType"`
	IssuerSigned IssuerSigned  `cbor:"issuerSigned"`
	DeviceSigned *DeviceSigned `cbor:"deviceSigned,omitempty"`
	Errors       Errors        `cbor:"errors,omitempty"`
}

func (d *Document) GetElementValue(namespace NameSpace, elementIdentifier ElementIdentifier) (ElementValue, error) {
	if d.DocType == "" {
		return nil, fmt.Errorf("invalid document type")
	}

	if d.IssuerSigned.NameSpaces == nil {
		return nil, fmt.Errorf("no namespaces available")
	}

	itemBytes, exists := d.IssuerSigned.NameSpaces[namespace]
	if !exists {
		return nil, fmt.Errorf("namespace %s not found", namespace)
	}

	for _, ib := range itemBytes {
		item, err := DecodeIssuerSignedItem(&ib)
		if err != nil {
			return nil, fmt.Errorf("failed to get issuer signed item: %w", err)
		}
		if item.ElementIdentifier == elementIdentifier {
			if tag, ok := item.ElementValue.(cbor.Tag); ok {
				return tag.Content, nil
			}
			return item.ElementValue, nil
		}
	}
	return nil, fmt.Errorf("element %s not found in namespace %s", elementIdentifier, namespace)
}

type IssuerSigned struct {
	NameSpaces IssuerNameSpaces   `cbor:"nameSpaces,omitempty"`
	IssuerAuth cbortag.Sign1Tuple `cbor:"issuerAuth"`
}

func (i *IssuerSigned) GetNameSpaces() []NameSpace {
	nss := []NameSpace{}
	for ns := range i.NameSpaces {
		nss = append(nss, ns)
	}
	return nss
}

func (i *IssuerSigned) GetIssuerSignedItems(ns NameSpace) ([]IssuerSignedItem, error) {
	isis := []IssuerSignedItem{}

	if len(i.NameSpaces[ns]) == 0 {
		return nil, fmt.Errorf("no such namespace: %s", ns)
	}
	for _, b := range i.NameSpaces[ns] {
		isi, err := DecodeIssuerSignedItem(&b)
		if err != nil {
			return nil, fmt.Errorf("failed to parse issuerSignedItem: %w", err)
		}
		isis = append(isis, *isi)
	}
	return isis, nil
}

// Alg returns the signing algorithm from the protected header.
func (i *IssuerSigned) Alg() (cose.Algorithm, error) {
	msg, err := i.IssuerAuth.Sign1Message()
	if err != nil {
		return 0, fmt.Errorf("failed to parse issuerAuth: %w", err)
	}
	return msg.Headers.Protected.Algorithm()
}

func (i *IssuerSigned) DocumentSigningKey() (*ecdsa.PublicKey, error) {
	certificate, err := i.DocumentSigningCertificate()
	if err != nil {
		return nil, fmt.Errorf("failed to get document signing certificate: %w", err)
	}

	documentSigningKey, ok := certificate.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type: %T, expected *ecdsa.PublicKey", certificate.PublicKey)
	}
	return documentSigningKey, nil
}

func (i *IssuerSigned) DocumentSigningCertificate() (*x509.Certificate, error) {
	certificates, err := i.DocumentSigningCertificateChain()
	if err != nil {
		return nil, err
	}
	return certificates[0], nil
}

func (i *IssuerSigned) DocumentSigningCertificateChain() ([]*x509.Certificate, error) {
	msg, err := i.IssuerAuth.Sign1Message()
	if err != nil {
		return nil, fmt.Errorf("failed to parse issuerAuth: %w", err)
	}

	rawX5Chain, ok := msg.Headers.Unprotected[cose.HeaderLabelX5Chain]
	if !ok {
		return nil, fmt.Errorf("x5chain not found in unprotected headers")
	}

	var rawX5ChainBytes [][]byte
	switch v := rawX5Chain.(type) {
	case [][]byte:
		rawX5ChainBytes = v
	case []byte:
		rawX5ChainBytes = [][]byte{v}
	case []interface{}:
		for _, e := range v {
			b, ok := e.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected x5chain element type: %T", e)
			}
			rawX5ChainBytes = append(rawX5ChainBytes, b)
		}
	default:
		return nil, fmt.Errorf("unexpected x5chain type: %T", rawX5Chain)
	}

	if len(rawX5ChainBytes) == 0 {
		return nil, fmt.Errorf("empty x5chain")
	}

	certs := make([]*x509.Certificate, 0, len(rawX5ChainBytes))
	for _, certData := range rawX5ChainBytes {
		cert, err := x509.ParseCertificate(certData)
		if err != nil {
			return nil, fmt.Errorf("error parsing certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	return certs, nil
}

// MobileSecurityObject decodes and structurally validates the MSO
// carried in the issuerAuth payload. A detached payload is reported as
// ErrDetachedPayload; schema violations are aggregated.
func (i *IssuerSigned) MobileSecurityObject() (*MobileSecurityObject, error) {
	if i.IssuerAuth.Detached() {
		return nil, ErrDetachedPayload{}
	}
	return DecodeMobileSecurityObject(i.IssuerAuth.Payload)
}

type IssuerNameSpaces map[NameSpace][]IssuerSignedItemBytes

// IssuerSignedItemBytes is the tag-24 wrapped encoding of one
// IssuerSignedItem. The tagged bytes are the exact sequence hashed at
// issuance, so digests recomputed from them are deterministic.
type IssuerSignedItemBytes = cbortag.TaggedEncodedCBOR

type IssuerSignedItem struct {
	DigestID          DigestID          `cbor:"digestID"`
	Random            []byte            `cbor:"random"`
	ElementIdentifier ElementIdentifier `cbor:"elementIdentifier"`
	ElementValue      ElementValue      `cbor:"elementValue"`
}

// DecodeIssuerSignedItem extracts the typed item from its tag-24
// encoding.
func DecodeIssuerSignedItem(b *IssuerSignedItemBytes) (*IssuerSignedItem, error) {
	var item IssuerSignedItem
	if err := b.Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issuer signed item: %w", err)
	}
	return &item, nil
}

// IssuerSignedItemDigest recomputes the digest of one wrapped item over
// its tag-24 bytes.
func IssuerSignedItemDigest(b *IssuerSignedItemBytes, alg string) (Digest, error) {
	if b == nil {
		return nil, fmt.Errorf("issuer signed item bytes is nil")
	}
	return digestBytes(b.TaggedBytes(), alg)
}

type MobileSecurityObject struct {
	Version         string        `cbor:"version"`
	DigestAlgorithm string        `cbor:"digestAlgorithm"`
	ValueDigests    ValueDigests  `cbor:"valueDigests"`
	DeviceKeyInfo   DeviceKeyInfo `cbor:"deviceKeyInfo"`
	DocType         DocType       `cbor:"docType"`
	ValidityInfo    ValidityInfo  `cbor:"validityInfo"`
}

func (m *MobileSecurityObject) GetDocType() DocType {
	return m.DocType
}

func (m *MobileSecurityObject) DigestAlg() string {
	return m.DigestAlgorithm
}

func (m *MobileSecurityObject) GetValidityInfo() ValidityInfo {
	return m.ValidityInfo
}

func (m *MobileSecurityObject) DeviceKey() (*ecdsa.PublicKey, error) {
	if m == nil || m.DeviceKeyInfo.DeviceKey == nil {
		return nil, fmt.Errorf("device key not available")
	}
	return m.DeviceKeyInfo.DeviceKey.ECDSA()
}

func (m *MobileSecurityObject) GetDigest(ns NameSpace, digestID DigestID) (Digest, error) {
	digests, ok := m.ValueDigests[ns]
	if !ok {
		return nil, ErrDigestMissing{NameSpace: ns, DigestID: digestID}
	}
	digest, ok := digests[digestID]
	if !ok {
		return nil, ErrDigestMissing{NameSpace: ns, DigestID: digestID}
	}
	return digest, nil
}

func (m *MobileSecurityObject) KeyAuthorizations() (*KeyAuthorizations, error) {
	if m == nil || m.DeviceKeyInfo.KeyAuthorizations == nil {
		return nil, fmt.Errorf("device key authorizations not available")
	}
	return m.DeviceKeyInfo.KeyAuthorizations, nil
}

type DeviceKeyInfo struct {
	DeviceKey         *COSEKey           `cbor:"deviceKey"`
	KeyAuthorizations *KeyAuthorizations `cbor:"keyAuthorizations,omitempty"`
	KeyInfo           *KeyInfo           `cbor:"keyInfo,omitempty"`
}

type COSEKey struct {
	Kty       int             `cbor:"1,keyasint,omitempty"`
	Kid       []byte          `cbor:"2,keyasint,omitempty"`
	Alg       int             `cbor:"3,keyasint,omitempty"`
	KeyOpts   int             `cbor:"4,keyasint,omitempty"`
	IV        []byte          `cbor:"5,keyasint,omitempty"`
	CrvOrNOrK cbor.RawMessage `cbor:"-1,keyasint,omitempty"` // K for symmetric keys, Crv for elliptic curve keys, N for RSA modulus
	XOrE      cbor.RawMessage `cbor:"-2,keyasint,omitempty"` // X for curve x-coordinate, E for RSA public exponent
	Y         cbor.RawMessage `cbor:"-3,keyasint,omitempty"` // Y for curve y-coordinate
	D         []byte          `cbor:"-4,keyasint,omitempty"`
}

// RFC 8152 Table 21 curve identifiers.
const (
	P256          = 1
	P384          = 2
	P521          = 3
	BrainpoolP256 = 8
	BrainpoolP384 = 9
	BrainpoolP512 = 10
)

// NewCOSEKey encodes an ECDSA public key as a COSE_Key (kty EC2).
func NewCOSEKey(pub *ecdsa.PublicKey) (*COSEKey, error) {
	if pub == nil {
		return nil, fmt.Errorf("public key is nil")
	}

	var crv int
	switch pub.Curve {
	case elliptic.P256():
		crv = P256
	case elliptic.P384():
		crv = P384
	case elliptic.P521():
		crv = P521
	default:
		return nil, fmt.Errorf("unsupported curve: %v", pub.Curve)
	}

	size := (pub.Curve.Params().BitSize + 7) / 8

	crvBytes, err := cbor.Marshal(crv)
	if err != nil {
		return nil, err
	}
	xBytes, err := cbor.Marshal(pub.X.FillBytes(make([]byte, size)))
	if err != nil {
		return nil, err
	}
	yBytes, err := cbor.Marshal(pub.Y.FillBytes(make([]byte, size)))
	if err != nil {
		return nil, err
	}

	return &COSEKey{
		Kty:       2, // EC2
		CrvOrNOrK: crvBytes,
		XOrE:      xBytes,
		Y:         yBytes,
	}, nil
}

// ECDSA recovers the ECDSA public key from an EC2 COSE_Key.
func (k *COSEKey) ECDSA() (*ecdsa.PublicKey, error) {
	if k == nil {
		return nil, fmt.Errorf("cose key is nil")
	}

	var crv int
	if err := cbor.Unmarshal(k.CrvOrNOrK, &crv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal curve: %w", err)
	}

	var xBytes []byte
	if err := cbor.Unmarshal(k.XOrE, &xBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal X coordinate: %w", err)
	}

	var yBytes []byte
	if err := cbor.Unmarshal(k.Y, &yBytes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Y coordinate: %w", err)
	}

	if len(xBytes) == 0 || len(yBytes) == 0 {
		return nil, fmt.Errorf("invalid coordinates")
	}

	var curve elliptic.Curve
	switch crv {
	case P256:
		curve = elliptic.P256()
	case P384:
		curve = elliptic.P384()
	case P521:
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve: %d", crv)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

type KeyAuthorizations struct {
	NameSpaces   []NameSpace                       `cbor:"nameSpaces,omitempty"`
	DataElements map[NameSpace][]ElementIdentifier `cbor:"dataElements,omitempty"`
}

type KeyInfo map[int]interface{}

type ValueDigests map[NameSpace]DigestIDs

type DigestIDs map[DigestID]Digest

// ValidityInfo is the validity window of an MSO. validFrom equal to
// validUntil means the credential never expires; the verifier skips the
// window check in that case.
type ValidityInfo struct {
	Signed         cbortag.DateTime  `cbor:"signed"`
	ValidFrom      cbortag.DateTime  `cbor:"validFrom"`
	ValidUntil     cbortag.DateTime  `cbor:"validUntil"`
	ExpectedUpdate *cbortag.DateTime `cbor:"expectedUpdate,omitempty"`
}

type DigestID uint32

type Digest []byte

type DeviceSigned struct {
	NameSpaces *cbortag.TaggedEncodedCBOR `cbor:"nameSpaces"`
	DeviceAuth *DeviceAuth                `cbor:"deviceAuth"`
}

type DeviceNameSpaces map[NameSpace]DeviceSignedItems

type DeviceSignedItems map[ElementIdentifier]ElementValue

func (d *DeviceSigned) DeviceNameSpaces() (DeviceNameSpaces, error) {
	if d == nil || d.NameSpaces == nil {
		return nil, fmt.Errorf("device name spaces bytes is nil")
	}

	var nameSpaces DeviceNameSpaces
	if err := d.NameSpaces.Decode(&nameSpaces); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device name spaces: %w", err)
	}
	return nameSpaces, nil
}

type DeviceAuth struct {
	DeviceSignature *cbortag.Sign1Tuple `cbor:"deviceSignature,omitempty"`
	DeviceMac       *cbortag.Sign1Tuple `cbor:"deviceMac,omitempty"`
}

type DocumentError map[DocType]ErrorCode

type Errors map[NameSpace]ErrorItems

type ErrorItems map[ElementIdentifier]ErrorCode

type ErrorCode int
