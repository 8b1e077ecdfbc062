package extraction

import (
	"math"
	"strings"
	"time"

	"github.com/JaimeStill/veridid/internal/identity"
)

// Fields is the structured output of the OCR capability.
type Fields struct {
	FullName       string  `json:"full_name"`
	DocumentNumber string  `json:"document_number"`
	DocumentType   string  `json:"document_type"`
	DateOfBirth    string  `json:"date_of_birth"`
	Gender         string  `json:"gender"`
	IssuingCountry string  `json:"issuing_country"`
	Confidence     float64 `json:"confidence"`
	RawText        string  `json:"raw_text,omitempty"`
}

// Fallback is the fixed record substituted when OCR is unavailable.
func Fallback() Fields {
	return Fields{
		FullName:       "John Doe",
		DocumentNumber: "AB123456789",
		DocumentType:   "National ID",
		DateOfBirth:    "1990-01-01",
		Gender:         "Male",
		IssuingCountry: "United States",
		Confidence:     0,
	}
}

// FromRecord reads previously extracted fields back out of a record.
func FromRecord(r identity.Record) Fields {
	return Fields{
		FullName:       r.FullName,
		DocumentNumber: r.DocumentNumber,
		DocumentType:   r.DocumentType,
		DateOfBirth:    r.DateOfBirth,
		Gender:         r.Gender,
		IssuingCountry: r.IssuingCountry,
		Confidence:     r.ExtractionConfidence,
		RawText:        r.RawExtractionText,
	}
}

// Update converts the fields into a record update that also marks the
// record as extracted.
func (f Fields) Update() identity.Update {
	return identity.Update{
		FullName:             identity.Ptr(f.FullName),
		DocumentNumber:       identity.Ptr(f.DocumentNumber),
		DocumentType:         identity.Ptr(f.DocumentType),
		DateOfBirth:          identity.Ptr(f.DateOfBirth),
		Gender:               identity.Ptr(f.Gender),
		IssuingCountry:       identity.Ptr(f.IssuingCountry),
		ExtractedInfo:        identity.Ptr(true),
		ExtractionConfidence: identity.Ptr(f.Confidence),
		RawExtractionText:    identity.Ptr(f.RawText),
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",
	"02.01.2006",
	"02-01-2006",
	"01/02/2006",
	"2 January 2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02JAN2006",
	"2006-01-02T15:04:05Z07:00",
}

// Normalize trims and collapses whitespace in every field, upper-cases the
// document number without spaces, expands single-letter genders, rewrites
// recognizable dates as ISO-8601, and clamps confidence to [0,1].
func Normalize(f Fields) Fields {
	f.FullName = collapse(f.FullName)
	f.DocumentType = collapse(f.DocumentType)
	f.IssuingCountry = collapse(f.IssuingCountry)
	f.DocumentNumber = strings.ToUpper(strings.Join(strings.Fields(f.DocumentNumber), ""))
	f.DateOfBirth = normalizeDate(collapse(f.DateOfBirth))
	f.Gender = normalizeGender(collapse(f.Gender))
	f.RawText = strings.TrimSpace(f.RawText)
	f.Confidence = clampConfidence(f.Confidence)
	return f
}

// Backfill replaces every empty identity field with the fallback value and
// reports whether any field was substituted.
func Backfill(f Fields) (Fields, bool) {
	fb := Fallback()
	filled := false

	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
			filled = true
		}
	}

	fill(&f.FullName, fb.FullName)
	fill(&f.DocumentNumber, fb.DocumentNumber)
	fill(&f.DocumentType, fb.DocumentType)
	fill(&f.DateOfBirth, fb.DateOfBirth)
	fill(&f.Gender, fb.Gender)
	fill(&f.IssuingCountry, fb.IssuingCountry)

	return f, filled
}

// ConfidenceLevel buckets a confidence value for display.
func ConfidenceLevel(c float64) string {
	switch {
	case c > 0.8:
		return "high"
	case c > 0.6:
		return "medium"
	default:
		return "low"
	}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeDate(s string) string {
	if s == "" {
		return s
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return s
}

func normalizeGender(s string) string {
	switch strings.ToUpper(s) {
	case "M", "MALE":
		return "Male"
	case "F", "FEMALE":
		return "Female"
	case "X":
		return "Unspecified"
	default:
		return s
	}
}

func clampConfidence(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
