package document

import (
	"testing"

	"github.com/kokukuma/mdoc-credential/mdoc"
)

func TestAgeOver(t *testing.T) {
	tests := []struct {
		age     int
		want    mdoc.ElementIdentifier
		wantErr bool
	}{
		{age: 0, want: "age_over_0"},
		{age: 18, want: "age_over_18"},
		{age: 99, want: "age_over_99"},
		{age: -1, wantErr: true},
		{age: 100, wantErr: true},
	}
	for _, tt := range tests {
		got, err := AgeOver(tt.age)
		if tt.wantErr {
			if err == nil {
				t.Errorf("AgeOver(%d): expected error", tt.age)
			}
			continue
		}
		if err != nil {
			t.Errorf("AgeOver(%d): %v", tt.age, err)
			continue
		}
		if got != tt.want {
			t.Errorf("AgeOver(%d) = %s, want %s", tt.age, got, tt.want)
		}
	}
}

func TestIsValidDocTypeNamespace(t *testing.T) {
	tests := []struct {
		name      string
		docType   mdoc.DocType
		namespace mdoc.NameSpace
		want      bool
	}{
		{name: "mDL with ISO namespace", docType: IsoMDL, namespace: ISO1801351, want: true},
		{name: "PID with EUDI namespace", docType: EudiPid, namespace: EUDIPID1, want: true},
		{name: "mDL with EUDI namespace", docType: IsoMDL, namespace: EUDIPID1, want: false},
		{name: "unknown docType", docType: "org.example.other", namespace: ISO1801351, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidDocTypeNamespace(tt.docType, tt.namespace); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidElementForNamespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace mdoc.NameSpace
		element   mdoc.ElementIdentifier
		want      bool
	}{
		{name: "ISO family_name", namespace: ISO1801351, element: IsoFamilyName, want: true},
		{name: "ISO age_over_21", namespace: ISO1801351, element: "age_over_21", want: true},
		{name: "ISO age_over_150", namespace: ISO1801351, element: "age_over_150", want: false},
		{name: "ISO unknown element", namespace: ISO1801351, element: "favorite_color", want: false},
		{name: "EUDI nationality", namespace: EUDIPID1, element: EudiNationality, want: true},
		{name: "unknown namespace", namespace: "org.example.ns", element: IsoFamilyName, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidElementForNamespace(tt.namespace, tt.element); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
