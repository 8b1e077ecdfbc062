package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JaimeStill/veridid/internal/identity"
)

// DefaultPlaceholderImage is shown when no identity image was captured.
const DefaultPlaceholderImage = "ipfs://bafybeiamhz7xwe7kjvurvtc7d4t3pscyttowfqkkcjrdfsulcn56bdrgke/image.png"

// TimestampLayout renders verification timestamps in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	unknown      = "Unknown"
	unknownUser  = "Unknown User"
	notSpecified = "Not Specified"
	notAvailable = "Not Available"

	typeDemo     = "Demo Mode"
	typeVerified = "Full Verification"
)

// Assembler builds metadata documents.
type Assembler struct {
	PlaceholderImage string
}

// Assemble builds a document with the default placeholder image.
func Assemble(rec identity.Record, demoMode bool, now time.Time) (Document, error) {
	return Assembler{}.Assemble(rec, demoMode, now)
}

type subject struct {
	name           string
	documentNumber string
	documentType   string
	dateOfBirth    string
	gender         string
	nationality    string
}

// Assemble selects demo or verified identity values, substitutes placeholders
// for absent values, and renders the ordered attribute list. The returned
// document always has a non-empty value for every attribute.
func (a Assembler) Assemble(rec identity.Record, demoMode bool, now time.Time) (Document, error) {
	s := verifiedSubject(rec)
	if demoMode {
		s = demoSubject(rec.DemoData)
	}

	placeholder := a.PlaceholderImage
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}

	image := firstNonEmpty(rec.LivenessImageRef, rec.DocumentImageRef, placeholder)

	timestamp := now
	if rec.LivenessTimestamp != nil {
		timestamp = *rec.LivenessTimestamp
	}

	verificationType := typeVerified
	if demoMode {
		verificationType = typeDemo
	}

	liveness := "No"
	if rec.LivenessVerified || rec.HasLivenessImage() {
		liveness = "Yes"
	}

	doc := Document{
		Name: s.name,
		Description: fmt.Sprintf(
			"Name: %s, ID # %s, DOB: %s, Gender: %s",
			s.name, s.documentNumber, s.dateOfBirth, s.gender,
		),
		Image: image,
		Attributes: []Attribute{
			{TraitDocumentType, s.documentType},
			{TraitDocumentNumber, s.documentNumber},
			{TraitFullName, s.name},
			{TraitDateOfBirth, s.dateOfBirth},
			{TraitGender, s.gender},
			{TraitNationality, s.nationality},
			{TraitVerificationScore, strconv.Itoa(rec.VerificationScore)},
			{TraitVerificationTimestamp, timestamp.UTC().Format(TimestampLayout)},
			{TraitVerificationType, verificationType},
			{TraitLivenessVerified, liveness},
			{TraitDocumentImageURL, firstNonEmpty(rec.DocumentImageRef, notAvailable)},
			{TraitLivenessImageURL, firstNonEmpty(rec.LivenessImageRef, notAvailable)},
		},
	}

	if err := validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func verifiedSubject(rec identity.Record) subject {
	return subject{
		name:           firstNonEmpty(rec.FullName, unknownUser),
		documentNumber: firstNonEmpty(rec.DocumentNumber, unknown),
		documentType:   firstNonEmpty(rec.DocumentType, unknown),
		dateOfBirth:    firstNonEmpty(rec.DateOfBirth, unknown),
		gender:         firstNonEmpty(rec.Gender, notSpecified),
		nationality:    firstNonEmpty(rec.IssuingCountry, unknown),
	}
}

func demoSubject(demo *identity.DemoData) subject {
	if demo == nil {
		demo = &identity.DemoData{}
	}
	name := strings.TrimSpace(demo.FirstName + " " + demo.LastName)
	return subject{
		name:           firstNonEmpty(name, unknownUser),
		documentNumber: firstNonEmpty(demo.DocumentNumber, unknown),
		documentType:   firstNonEmpty(demo.DocumentType, unknown),
		dateOfBirth:    firstNonEmpty(demo.DateOfBirth, unknown),
		gender:         notSpecified,
		nationality:    firstNonEmpty(demo.Nationality, unknown),
	}
}

func validate(doc Document) error {
	if doc.Name == "" || doc.Image == "" {
		return fmt.Errorf("%w: document name and image required", identity.ErrValidation)
	}
	if len(doc.Attributes) != len(Traits) {
		return fmt.Errorf("%w: expected %d attributes, got %d", identity.ErrValidation, len(Traits), len(doc.Attributes))
	}
	for i, attr := range doc.Attributes {
		if attr.TraitType != Traits[i] {
			return fmt.Errorf("%w: attribute %d is %q, want %q", identity.ErrValidation, i, attr.TraitType, Traits[i])
		}
		if strings.TrimSpace(attr.Value) == "" {
			return fmt.Errorf("%w: attribute %q is empty", identity.ErrValidation, attr.TraitType)
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
