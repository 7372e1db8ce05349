package server

import (
	"strings"
	"testing"

	"github.com/kokukuma/mdoc-credential/cbortag"
)

func TestBuildClaims(t *testing.T) {
	req := IssueRequest{
		DocType: "org.iso.18013.5.1.mDL",
		Claims: map[string]map[string]interface{}{
			"org.iso.18013.5.1": {
				"given_name":  "Super",
				"family_name": "Mario",
				"birth_date":  "1981-07-09",
			},
		},
	}

	claims, err := req.BuildClaims()
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}

	nsClaims := claims["org.iso.18013.5.1"]
	if len(nsClaims) != 3 {
		t.Fatalf("got %d claims, want 3", len(nsClaims))
	}

	// Identifiers are sorted so digestID assignment does not depend on
	// JSON map iteration order.
	wantOrder := []string{"birth_date", "family_name", "given_name"}
	for i, want := range wantOrder {
		if string(nsClaims[i].Identifier) != want {
			t.Errorf("claim %d = %s, want %s", i, nsClaims[i].Identifier, want)
		}
	}

	fd, ok := nsClaims[0].Value.(cbortag.FullDate)
	if !ok {
		t.Fatalf("birth_date value = %T, want cbortag.FullDate", nsClaims[0].Value)
	}
	if fd.String() != "1981-07-09" {
		t.Errorf("birth_date = %s, want 1981-07-09", fd.String())
	}
}

func TestBuildClaimsRejectsBadDate(t *testing.T) {
	req := IssueRequest{
		Claims: map[string]map[string]interface{}{
			"org.iso.18013.5.1": {
				"birth_date": 19810709,
			},
		},
	}

	_, err := req.BuildClaims()
	if err == nil || !strings.Contains(err.Error(), "invalid value for birth_date") {
		t.Errorf("expected birth_date error, got %v", err)
	}
}
