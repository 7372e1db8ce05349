package server

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/kokukuma/mdoc-credential/cbortag"
	"github.com/kokukuma/mdoc-credential/mdoc"
)

// IssueRequest is the JSON body of POST /issue. Claims are grouped by
// namespace; values are committed as given, except the well-known
// full-date elements which are re-encoded as tag 1004 dates.
type IssueRequest struct {
	DocType   string                            `mapstructure:"doc_type"`
	ValidDays int                               `mapstructure:"valid_days"`
	Claims    map[string]map[string]interface{} `mapstructure:"claims"`
}

// Elements carried as full-date (tag 1004) values on the wire.
var fullDateElements = map[mdoc.ElementIdentifier]bool{
	"birth_date":            true,
	"issue_date":            true,
	"expiry_date":           true,
	"issuance_date":         true,
	"portrait_capture_date": true,
}

func parseIssueRequest(r *http.Request) (*IssueRequest, error) {
	var raw map[string]interface{}
	if err := parseJSON(r, &raw); err != nil {
		return nil, err
	}

	var req IssueRequest
	if err := mapstructure.Decode(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to decode issue request: %w", err)
	}

	if req.DocType == "" {
		return nil, fmt.Errorf("doc_type is required")
	}
	if len(req.Claims) == 0 {
		return nil, fmt.Errorf("claims are required")
	}
	if req.ValidDays < 0 {
		return nil, fmt.Errorf("valid_days must not be negative")
	}
	return &req, nil
}

// BuildClaims converts the request body into issuance claims. JSON
// objects are unordered, so identifiers are sorted to keep digestID
// assignment deterministic across requests.
func (r *IssueRequest) BuildClaims() (mdoc.Claims, error) {
	claims := mdoc.Claims{}

	for ns, elements := range r.Claims {
		identifiers := make([]string, 0, len(elements))
		for id := range elements {
			identifiers = append(identifiers, id)
		}
		sort.Strings(identifiers)

		nsClaims := make([]mdoc.Claim, 0, len(identifiers))
		for _, id := range identifiers {
			value, err := convertClaimValue(mdoc.ElementIdentifier(id), elements[id])
			if err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", id, err)
			}
			nsClaims = append(nsClaims, mdoc.Claim{
				Identifier: mdoc.ElementIdentifier(id),
				Value:      value,
			})
		}
		claims[mdoc.NameSpace(ns)] = nsClaims
	}

	return claims, nil
}

func convertClaimValue(id mdoc.ElementIdentifier, value interface{}) (mdoc.ElementValue, error) {
	if !fullDateElements[id] {
		return value, nil
	}

	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected a YYYY-MM-DD string, got %T", value)
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return cbortag.NewFullDate(t), nil
}
