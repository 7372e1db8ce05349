// Offline walkthrough: mint a signing chain, issue an mDL, round-trip
// it through CBOR, verify it, then tamper with a disclosed element and
// watch verification fail.
package main

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"

	"github.com/kokukuma/mdoc-credential/cbortag"
	"github.com/kokukuma/mdoc-credential/document"
	"github.com/kokukuma/mdoc-credential/internal/cryptoroot"
	"github.com/kokukuma/mdoc-credential/mdoc"
	"github.com/kokukuma/mdoc-credential/pkg/hash"
)

func main() {
	chain, err := cryptoroot.New()
	if err != nil {
		panic("failed to create signing chain: " + err.Error())
	}

	birthDate, _ := time.Parse("2006-01-02", "1981-07-09")
	claims := mdoc.Claims{
		document.ISO1801351: []mdoc.Claim{
			{Identifier: document.IsoFamilyName, Value: "Mario"},
			{Identifier: document.IsoGivenName, Value: "Super"},
			{Identifier: document.IsoBirthDate, Value: cbortag.NewFullDate(birthDate)},
		},
	}

	issuer := mdoc.NewIssuer(chain.SignerKey, chain.DER())
	issuerSigned, err := issuer.Issue(document.IsoMDL, claims, nil, hash.SHA256, mdoc.Validity{
		ValidFrom:  time.Now(),
		ValidUntil: time.Now().AddDate(1, 0, 0),
	})
	if err != nil {
		panic("failed to issue credential: " + err.Error())
	}

	doc := mdoc.Document{
		DocType:      document.IsoMDL,
		IssuerSigned: *issuerSigned,
	}

	// Round trip through the wire encoding before verifying, the same
	// path a wallet-to-verifier exchange takes.
	docBytes, err := cbor.Marshal(doc)
	if err != nil {
		panic("failed to marshal document: " + err.Error())
	}
	fmt.Printf("issued credential: %d bytes\n", len(docBytes))

	var decoded mdoc.Document
	if err := cbor.Unmarshal(docBytes, &decoded); err != nil {
		panic("failed to unmarshal document: " + err.Error())
	}

	verifier := mdoc.NewVerifier(chain.Roots())
	if err := verifier.Verify(&decoded); err != nil {
		panic("failed to verify mdoc: " + err.Error())
	}
	fmt.Println("verification: OK")

	items, err := decoded.IssuerSigned.GetIssuerSignedItems(document.ISO1801351)
	if err != nil {
		panic("failed to get issuer signed items: " + err.Error())
	}
	for _, item := range items {
		spew.Dump(item)
	}

	// Tamper with the disclosed family name and verify again. The
	// issuer's signature is untouched, so only the digest check trips.
	tampered := decoded
	tamperFamilyName(&tampered, "Luigi")
	err = verifier.Verify(&tampered)
	fmt.Printf("verification after tampering: %v\n", err)
}

func tamperFamilyName(doc *mdoc.Document, name string) {
	items := doc.IssuerSigned.NameSpaces[document.ISO1801351]
	for i, itemBytes := range items {
		item, err := mdoc.DecodeIssuerSignedItem(&itemBytes)
		if err != nil {
			panic("failed to decode issuer signed item: " + err.Error())
		}
		if item.ElementIdentifier != document.IsoFamilyName {
			continue
		}
		item.ElementValue = name
		replaced, err := cbortag.NewTaggedEncodedCBOR(item)
		if err != nil {
			panic("failed to re-encode issuer signed item: " + err.Error())
		}
		items[i] = *replaced
	}
}
