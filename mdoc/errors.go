// Error types for issuance and verification. Every verification
// failure is a typed value so callers can distinguish a broken chain
// from a broken digest; none of them is ever downgraded to a warning.
package mdoc

import (
	"fmt"
	"time"
)

// ErrDetachedPayload is returned when the issuerAuth payload is
// detached and no external payload was supplied.
type ErrDetachedPayload struct{}

func (e ErrDetachedPayload) Error() string {
	return "issuerAuth payload is detached and no external payload was supplied"
}

// ErrCertificateChain is returned when the document signing certificate
// chain cannot be extracted, parsed or validated against the trusted
// roots.
type ErrCertificateChain struct {
	Err error
}

func (e ErrCertificateChain) Error() string {
	return fmt.Sprintf("certificate chain validation failed: %v", e.Err)
}

func (e ErrCertificateChain) Unwrap() error {
	return e.Err
}

// ErrSignatureVerification is returned when the COSE signature over the
// MSO does not verify with the recovered document signing key.
type ErrSignatureVerification struct {
	Err error
}

func (e ErrSignatureVerification) Error() string {
	return fmt.Sprintf("issuer signature verification failed: %v", e.Err)
}

func (e ErrSignatureVerification) Unwrap() error {
	return e.Err
}

// ErrDigestMissing is returned when a disclosed item has no
// corresponding digest in the MSO.
type ErrDigestMissing struct {
	NameSpace NameSpace
	DigestID  DigestID
}

func (e ErrDigestMissing) Error() string {
	return fmt.Sprintf("digest ID %d not found in namespace %s", e.DigestID, e.NameSpace)
}

// ErrDigestMismatch is returned when the recomputed digest of a
// disclosed item differs from the digest committed in the MSO.
type ErrDigestMismatch struct {
	NameSpace NameSpace
	DigestID  DigestID
}

func (e ErrDigestMismatch) Error() string {
	return fmt.Sprintf("digest mismatch for ID %d in namespace %s", e.DigestID, e.NameSpace)
}

// ErrValidityPeriod is returned when the current time falls outside the
// MSO validity window.
type ErrValidityPeriod struct {
	ValidFrom  time.Time
	ValidUntil time.Time
	Now        time.Time
}

func (e ErrValidityPeriod) Error() string {
	return fmt.Sprintf("current time %s outside MSO validity period [%s, %s]",
		e.Now.Format(time.RFC3339), e.ValidFrom.Format(time.RFC3339), e.ValidUntil.Format(time.RFC3339))
}

// ErrDocTypeMismatch is returned when the docType of the document does
// not match the docType committed in the MSO.
type ErrDocTypeMismatch struct {
	Document DocType
	MSO      DocType
}

func (e ErrDocTypeMismatch) Error() string {
	return fmt.Sprintf("docType mismatch: document=%s mso=%s", e.Document, e.MSO)
}
