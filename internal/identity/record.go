// Package identity defines the identity record accumulated during a
// verification session and the error taxonomy shared by every pipeline stage.
package identity

import (
	"strings"
	"time"
)

// DemoData carries the synthetic identity used when a DID is issued in demo mode.
type DemoData struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	Nationality    string `json:"nationality"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

// Record is the canonical identity accumulated across workflow steps.
// Empty strings represent absent values. VerificationScore is derived and
// only ever written by the workflow controller.
type Record struct {
	WalletAddress string `json:"wallet_address,omitempty"`

	FullName       string `json:"full_name,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Gender         string `json:"gender,omitempty"`
	IssuingCountry string `json:"issuing_country,omitempty"`

	DocumentImageRef string `json:"document_image_ref,omitempty"`
	LivenessImageRef string `json:"liveness_image_ref,omitempty"`

	LivenessVerified  bool       `json:"liveness_verified"`
	LivenessTimestamp *time.Time `json:"liveness_timestamp,omitempty"`

	ExtractedInfo        bool    `json:"extracted_info"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
	RawExtractionText    string  `json:"raw_extraction_text,omitempty"`

	VerificationScore int `json:"verification_score"`

	MetadataURI string    `json:"metadata_uri,omitempty"`
	DemoData    *DemoData `json:"demo_data,omitempty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	if r.LivenessTimestamp != nil {
		ts := *r.LivenessTimestamp
		r.LivenessTimestamp = &ts
	}
	if r.DemoData != nil {
		demo := *r.DemoData
		r.DemoData = &demo
	}
	return r
}

// IdentityFields returns the six extracted identity values in canonical order.
func (r *Record) IdentityFields() []string {
	return []string{
		r.FullName,
		r.DocumentNumber,
		r.DocumentType,
		r.DateOfBirth,
		r.Gender,
		r.IssuingCountry,
	}
}

// Populated reports how many identity fields hold a non-blank value.
func (r *Record) Populated() int {
	n := 0
	for _, v := range r.IdentityFields() {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// HasLivenessImage reports whether a liveness capture has been committed.
func (r *Record) HasLivenessImage() bool {
	return r.LivenessImageRef != ""
}
