package document

import (
	"strconv"
	"strings"

	"github.com/kokukuma/mdoc-credential/mdoc"
)

var validISOElements = map[mdoc.ElementIdentifier]bool{
	IsoFamilyName: true, IsoGivenName: true, IsoBirthDate: true,
	IsoIssueDate: true, IsoExpiryDate: true, IsoIssuingCountry: true,
	IsoIssuingAuthority: true, IsoDocumentNumber: true, IsoPortrait: true,
	IsoDrivingPrivileges: true, IsoUnDistinguishingSign: true,
	IsoAdministrativeNumber: true, IsoSex: true, IsoHeight: true,
	IsoWeight: true, IsoEyeColour: true, IsoHairColour: true,
	IsoBirthPlace: true, IsoResidentAddress: true, IsoPortraitCaptureDate: true,
	IsoAgeInYears: true, IsoAgeBirthYear: true, IsoIssuingJurisdiction: true,
	IsoNationality: true, IsoResidentCity: true, IsoResidentState: true,
	IsoResidentPostalCode: true, IsoResidentCountry: true,
	IsoFamilyNameNationalCharacter: true, IsoGivenNameNationalCharacter: true,
	IsoSignatureUsualMark: true,
}

var validEUDIElements = map[mdoc.ElementIdentifier]bool{
	EudiFamilyName: true, EudiGivenName: true, EudiBirthDate: true,
	EudiAgeOver18: true, EudiAgeInYears: true, EudiAgeBirthYear: true,
	EudiGivenNameBirth: true, EudiBirthPlace: true, EudiBirthCountry: true,
	EudiBirthState: true, EudiBirthCity: true, EudiResidentAddress: true,
	EudiResidentCountry: true, EudiResidentState: true, EudiResidentCity: true,
	EudiResidentPostalCode: true, EudiResidentStreet: true,
	EudiResidentHouseNumber: true, EudiGender: true, EudiNationality: true,
	EudiIssuanceDate: true, EudiExpiryDate: true, EudiIssuingAuthority: true,
	EudiDocumentNumber: true, EudiAdministrativeNumber: true,
	EudiIssuingCountry: true, EudiIssuingJurisdiction: true,
}

// IsValidElementForNamespace checks if an element identifier is valid
// for a given namespace. age_over_NN identifiers are valid for any NN
// between 0 and 99.
func IsValidElementForNamespace(namespace mdoc.NameSpace, element mdoc.ElementIdentifier) bool {
	switch namespace {
	case ISO1801351:
		return validISOElements[element] || isAgeOver(element)
	case EUDIPID1:
		return validEUDIElements[element] || isAgeOver(element)
	default:
		return false
	}
}

func isAgeOver(element mdoc.ElementIdentifier) bool {
	s := string(element)
	if !strings.HasPrefix(s, "age_over_") {
		return false
	}
	age, err := strconv.Atoi(strings.TrimPrefix(s, "age_over_"))
	if err != nil {
		return false
	}
	return age >= 0 && age <= 99
}
