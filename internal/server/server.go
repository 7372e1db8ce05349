// Package server exposes credential issuance and verification over
// HTTP for the demo deployment.
package server

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/kokukuma/mdoc-credential/document"
	"github.com/kokukuma/mdoc-credential/internal/cryptoroot"
	"github.com/kokukuma/mdoc-credential/mdoc"
	"github.com/kokukuma/mdoc-credential/pkg/hash"
	"github.com/kokukuma/mdoc-credential/pkg/pki"
)

var b64 = base64.URLEncoding.WithPadding(base64.StdPadding)

func NewServer() (*Server, error) {
	chain, err := cryptoroot.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create signing chain: %w", err)
	}

	// MDOC_ROOTS_DIR adds externally issued roots, so credentials from
	// other issuers verify too. The server's own root is always trusted.
	roots := chain.Roots()
	if dir := os.Getenv("MDOC_ROOTS_DIR"); dir != "" {
		pool, err := pki.GetRootCertificates(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load trusted roots: %w", err)
		}
		pool.AddCert(chain.RootCert)
		roots = pool
	}

	return &Server{
		sessions: NewSessions(),
		issuer:   mdoc.NewIssuer(chain.SignerKey, chain.DER()),
		chain:    chain,
		roots:    roots,
	}, nil
}

type Server struct {
	sessions *Sessions
	issuer   *mdoc.Issuer
	chain    *cryptoroot.Chain
	roots    *x509.CertPool
}

type IssueResponse struct {
	SessionID  string `json:"session_id"`
	Credential string `json:"credential,omitempty"`
	Error      string `json:"error,omitempty"`
}

type VerifyRequest struct {
	Credential string `json:"credential"`
}

type VerifyResponse struct {
	Elements []Element `json:"elements,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type Element struct {
	NameSpace  mdoc.NameSpace         `json:"namespace"`
	Identifier mdoc.ElementIdentifier `json:"identifier"`
	Value      mdoc.ElementValue      `json:"value"`
}

func (s *Server) Issue(w http.ResponseWriter, r *http.Request) {
	req, err := parseIssueRequest(r)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	claims, err := req.BuildClaims()
	if err != nil {
		jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}
	if err := validateClaims(claims); err != nil {
		jsonErrorResponse(w, err, http.StatusBadRequest)
		return
	}

	validity := mdoc.Validity{
		ValidFrom:  time.Now(),
		ValidUntil: time.Now().AddDate(0, 0, req.ValidDays),
	}
	if req.ValidDays == 0 {
		// No expiration: validFrom == validUntil.
		validity.ValidUntil = validity.ValidFrom
	}

	issuerSigned, err := s.issuer.Issue(mdoc.DocType(req.DocType), claims, nil, hash.SHA256, validity)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to issue credential: %v", err), http.StatusInternalServerError)
		return
	}

	doc := mdoc.Document{
		DocType:      mdoc.DocType(req.DocType),
		IssuerSigned: *issuerSigned,
	}

	docBytes, err := cbor.Marshal(doc)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to marshal document: %v", err), http.StatusInternalServerError)
		return
	}

	session := s.sessions.NewSession(&doc)

	jsonResponse(w, IssueResponse{
		SessionID:  session.ID,
		Credential: b64.EncodeToString(docBytes),
	}, http.StatusOK)
}

func (s *Server) Verify(w http.ResponseWriter, r *http.Request) {
	req := VerifyRequest{}
	if err := parseJSON(r, &req); err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	docBytes, err := b64.DecodeString(req.Credential)
	if err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to decode credential: %v", err), http.StatusBadRequest)
		return
	}

	var doc mdoc.Document
	if err := cbor.Unmarshal(docBytes, &doc); err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to unmarshal document: %v", err), http.StatusBadRequest)
		return
	}

	// The verifier is per request: it pins the clock at construction.
	if err := mdoc.NewVerifier(s.roots).Verify(&doc); err != nil {
		jsonErrorResponse(w, fmt.Errorf("failed to verify mdoc: %v", err), http.StatusBadRequest)
		return
	}

	var resp VerifyResponse
	for _, ns := range doc.IssuerSigned.GetNameSpaces() {
		items, err := doc.IssuerSigned.GetIssuerSignedItems(ns)
		if err != nil {
			jsonErrorResponse(w, err, http.StatusBadRequest)
			return
		}
		for _, item := range items {
			value := item.ElementValue
			if tag, ok := value.(cbor.Tag); ok {
				value = tag.Content
			}
			resp.Elements = append(resp.Elements, Element{
				NameSpace:  ns,
				Identifier: item.ElementIdentifier,
				Value:      value,
			})
		}
	}

	jsonResponse(w, resp, http.StatusOK)
}

// RootCertificate serves the demo root certificate so verifiers can
// trust credentials issued by this server.
func (s *Server) RootCertificate(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{
		"root": b64.EncodeToString(s.chain.RootCert.Raw),
	}, http.StatusOK)
}

func validateClaims(claims mdoc.Claims) error {
	for ns, nsClaims := range claims {
		for _, claim := range nsClaims {
			if !document.IsValidElementForNamespace(ns, claim.Identifier) {
				return fmt.Errorf("element %s not valid for namespace %s", claim.Identifier, ns)
			}
		}
	}
	return nil
}

func parseJSON(r *http.Request, v interface{}) error {
	if r == nil || r.Body == nil {
		return errors.New("No request given")
	}

	defer r.Body.Close()
	defer io.Copy(io.Discard, r.Body)

	return json.NewDecoder(r.Body).Decode(v)
}

func jsonResponse(w http.ResponseWriter, d interface{}, c int) {
	dj, err := json.Marshal(d)
	if err != nil {
		http.Error(w, "Error creating JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(c)
	fmt.Fprintf(w, "%s", dj)
}

func jsonErrorResponse(w http.ResponseWriter, e error, c int) {
	jsonResponse(w, VerifyResponse{Error: e.Error()}, c)
}
