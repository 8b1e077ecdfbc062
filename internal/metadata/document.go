// Package metadata assembles the DID metadata document from an identity
// record and publishes it to content-addressed storage.
package metadata

// Document is the published DID metadata artifact. Field names and attribute
// order are consumed by downstream indexers and must stay stable.
type Document struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// Attribute is a single trait of the document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Trait names in published order.
const (
	TraitDocumentType          = "document_type"
	TraitDocumentNumber        = "document_number"
	TraitFullName              = "full_name"
	TraitDateOfBirth           = "date_of_birth"
	TraitGender                = "gender"
	TraitNationality           = "nationality"
	TraitVerificationScore     = "verification_score"
	TraitVerificationTimestamp = "verification_timestamp"
	TraitVerificationType      = "verification_type"
	TraitLivenessVerified      = "liveness_verified"
	TraitDocumentImageURL      = "document_image_url"
	TraitLivenessImageURL      = "liveness_image_url"
)

// Traits lists every trait in the order it is published.
var Traits = []string{
	TraitDocumentType,
	TraitDocumentNumber,
	TraitFullName,
	TraitDateOfBirth,
	TraitGender,
	TraitNationality,
	TraitVerificationScore,
	TraitVerificationTimestamp,
	TraitVerificationType,
	TraitLivenessVerified,
	TraitDocumentImageURL,
	TraitLivenessImageURL,
}

// Value returns the value of the named trait.
func (d Document) Value(trait string) (string, bool) {
	for _, a := range d.Attributes {
		if a.TraitType == trait {
			return a.Value, true
		}
	}
	return "", false
}
