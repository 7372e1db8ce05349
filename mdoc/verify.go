package mdoc

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veraison/go-cose"
	"golang.org/x/sync/errgroup"
)

type VerifierOption func(*Verifier)

// AllowSelfCert adds the presented certificates to the trusted roots
// before chain validation. Demo use only.
func AllowSelfCert() VerifierOption {
	return func(v *Verifier) {
		v.allowSelfCert = true
	}
}

// WithCurrentTime fixes the clock used for the validity window and the
// certificate checks.
func WithCurrentTime(date time.Time) VerifierOption {
	return func(v *Verifier) {
		v.currentTime = date
	}
}

// WithClockSkew widens the validity and certificate windows by the
// given tolerance in both directions.
func WithClockSkew(skew time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.clockSkew = skew
	}
}

// WithDetachedPayload supplies the MSO bytes for an issuerAuth whose
// payload is detached.
func WithDetachedPayload(payload []byte) VerifierOption {
	return func(v *Verifier) {
		v.detachedPayload = payload
	}
}

func SkipVerifyCertificate() VerifierOption {
	return func(v *Verifier) {
		v.skipVerifyCertificate = true
	}
}

func SkipSignedDateValidation() VerifierOption {
	return func(v *Verifier) {
		v.skipSignedDateValidation = true
	}
}

// Verifier checks issuer data authentication for presented documents.
// A Verifier holds no per-call state and is safe for concurrent use.
type Verifier struct {
	roots                    *x509.CertPool
	allowSelfCert            bool
	skipVerifyCertificate    bool
	skipSignedDateValidation bool
	currentTime              time.Time
	clockSkew                time.Duration
	detachedPayload          []byte
}

func NewVerifier(roots *x509.CertPool, opts ...VerifierOption) *Verifier {
	verifier := &Verifier{
		roots:       roots,
		currentTime: time.Now(),
	}
	for _, opt := range opts {
		opt(verifier)
	}
	return verifier
}

// Verify runs the inspection procedure for issuer data authentication
// (18013-5 §9.3.1). Certificate and signature failures stop the
// procedure: nothing decoded from an unverified payload is trusted.
// Once the signature holds, digest, docType and validity defects are
// collected and reported together.
func (v *Verifier) Verify(doc *Document) error {
	issuerSigned := &doc.IssuerSigned

	// 1. Validate the certificate included in the MSO header.
	dsCert, err := v.verifyCertificate(issuerSigned)
	if err != nil {
		return ErrCertificateChain{Err: err}
	}

	// 2. Verify the digital signature of the IssuerAuth structure using
	//    the working public key from step 1.
	if err := v.verifyIssuerAuthSignature(issuerSigned); err != nil {
		return err
	}

	// 3. The payload is trusted now; decode and structurally validate
	//    the MSO.
	mso, err := v.mobileSecurityObject(issuerSigned)
	if err != nil {
		return err
	}

	var reasons []error

	// 4. Recalculate the digest for every disclosed IssuerSignedItem
	//    and compare against the MSO commitments.
	reasons = append(reasons, v.verifyDigests(issuerSigned, mso)...)

	// 5. The DocType in the MSO must match the document.
	if doc.DocType != mso.DocType {
		reasons = append(reasons, ErrDocTypeMismatch{Document: doc.DocType, MSO: mso.DocType})
	}

	// 6. Validate the ValidityInfo elements.
	if err := v.verifyMSOValidity(dsCert, mso); err != nil {
		reasons = append(reasons, err)
	}

	return errors.Join(reasons...)
}

func (v *Verifier) verifyCertificate(issuerSigned *IssuerSigned) (*x509.Certificate, error) {
	certs, err := issuerSigned.DocumentSigningCertificateChain()
	if err != nil {
		return nil, err
	}
	dsCert := certs[0]

	if v.skipVerifyCertificate {
		return dsCert, nil
	}

	roots := v.roots
	if roots == nil {
		roots = x509.NewCertPool()
	}
	if v.allowSelfCert {
		// The verifier's pool stays untouched: a presented certificate
		// is trusted for this call only.
		roots = roots.Clone()
		for _, cert := range certs {
			roots.AddCert(cert)
		}
	}

	intermediates := x509.NewCertPool()
	for _, cert := range certs[1:] {
		intermediates.AddCert(cert)
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		CurrentTime:   v.currentTime,
	}
	if _, err := dsCert.Verify(opts); err != nil {
		if !v.chainValidWithSkew(dsCert, opts, err) {
			return nil, fmt.Errorf("failed to verify dsCert chain: %w", err)
		}
	}
	return dsCert, nil
}

// chainValidWithSkew retries a failed chain validation with the clock
// shifted by the skew tolerance. Only date failures qualify: a chain
// that does not terminate in a trusted root stays invalid no matter
// where the clock sits.
func (v *Verifier) chainValidWithSkew(cert *x509.Certificate, opts x509.VerifyOptions, verifyErr error) bool {
	if v.clockSkew == 0 {
		return false
	}
	var invalid x509.CertificateInvalidError
	if !errors.As(verifyErr, &invalid) || invalid.Reason != x509.Expired {
		return false
	}
	for _, t := range []time.Time{v.currentTime.Add(-v.clockSkew), v.currentTime.Add(v.clockSkew)} {
		opts.CurrentTime = t
		if _, err := cert.Verify(opts); err == nil {
			return true
		}
	}
	return false
}

func (v *Verifier) verifyIssuerAuthSignature(issuerSigned *IssuerSigned) error {
	alg, err := issuerSigned.Alg()
	if err != nil {
		return ErrSignatureVerification{Err: err}
	}

	documentSigningKey, err := issuerSigned.DocumentSigningKey()
	if err != nil {
		return ErrSignatureVerification{Err: err}
	}

	coseVerifier, err := cose.NewVerifier(alg, documentSigningKey)
	if err != nil {
		return ErrSignatureVerification{Err: fmt.Errorf("failed to create signature verifier: %w", err)}
	}

	msg, err := issuerSigned.IssuerAuth.Sign1Message()
	if err != nil {
		return ErrSignatureVerification{Err: err}
	}

	if msg.Payload == nil {
		if v.detachedPayload == nil {
			return ErrDetachedPayload{}
		}
		msg.Payload = v.detachedPayload
	}

	if err := msg.Verify(nil, coseVerifier); err != nil {
		return ErrSignatureVerification{Err: err}
	}
	return nil
}

func (v *Verifier) mobileSecurityObject(issuerSigned *IssuerSigned) (*MobileSecurityObject, error) {
	if issuerSigned.IssuerAuth.Detached() {
		if v.detachedPayload == nil {
			return nil, ErrDetachedPayload{}
		}
		return DecodeMobileSecurityObject(v.detachedPayload)
	}
	return issuerSigned.MobileSecurityObject()
}

// verifyDigests recomputes every disclosed item digest concurrently and
// returns all missing or mismatched commitments, not just the first.
// Items are pure functions of their own bytes, so the evaluation order
// is not observable in the verdict.
func (v *Verifier) verifyDigests(issuerSigned *IssuerSigned, mso *MobileSecurityObject) []error {
	var (
		mu      sync.Mutex
		reasons []error
	)
	report := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reasons = append(reasons, err)
	}

	var g errgroup.Group
	for ns, itemBytes := range issuerSigned.NameSpaces {
		for idx := range itemBytes {
			ns, item := ns, &itemBytes[idx]
			g.Go(func() error {
				decoded, err := DecodeIssuerSignedItem(item)
				if err != nil {
					report(fmt.Errorf("namespace %s: %w", ns, err))
					return nil
				}

				expected, err := mso.GetDigest(ns, decoded.DigestID)
				if err != nil {
					report(err)
					return nil
				}

				calculated, err := IssuerSignedItemDigest(item, mso.DigestAlgorithm)
				if err != nil {
					report(err)
					return nil
				}

				if !bytes.Equal(expected, calculated) {
					report(ErrDigestMismatch{NameSpace: ns, DigestID: decoded.DigestID})
				}
				return nil
			})
		}
	}
	g.Wait()

	return reasons
}

func (v *Verifier) verifyMSOValidity(dsCert *x509.Certificate, mso *MobileSecurityObject) error {
	validity := mso.GetValidityInfo()
	signed := validity.Signed.Time()
	validFrom := validity.ValidFrom.Time()
	validUntil := validity.ValidUntil.Time()

	if !v.skipSignedDateValidation && dsCert != nil {
		if signed.Before(dsCert.NotBefore.Add(-v.clockSkew)) || signed.After(dsCert.NotAfter.Add(v.clockSkew)) {
			return fmt.Errorf("MSO signed date outside dsCert validity period: signed=%v notBefore=%v notAfter=%v",
				signed, dsCert.NotBefore, dsCert.NotAfter)
		}
	}

	// validFrom equal to validUntil marks a credential without
	// expiration; the window check does not apply.
	if validFrom.Equal(validUntil) {
		return nil
	}

	if v.currentTime.Before(validFrom.Add(-v.clockSkew)) || v.currentTime.After(validUntil.Add(v.clockSkew)) {
		return ErrValidityPeriod{ValidFrom: validFrom, ValidUntil: validUntil, Now: v.currentTime}
	}
	return nil
}
