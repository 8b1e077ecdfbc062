package identity

import (
	"fmt"
	"math"
	"time"
)

// Update is a partial record. Non-nil fields overwrite the record on Apply;
// nil fields retain the prior value. The verification score is not part of
// an update because it is always derived.
type Update struct {
	WalletAddress *string

	FullName       *string
	DocumentNumber *string
	DocumentType   *string
	DateOfBirth    *string
	Gender         *string
	IssuingCountry *string

	DocumentImageRef *string
	LivenessImageRef *string

	LivenessVerified  *bool
	LivenessTimestamp *time.Time

	ExtractedInfo        *bool
	ExtractionConfidence *float64
	RawExtractionText    *string

	MetadataURI *string
	DemoData    *DemoData
}

// Ptr returns a pointer to v for building updates inline.
func Ptr[T any](v T) *T {
	return &v
}

// Apply merges the update into a copy of r and validates the result.
// The original record is never partially modified.
func (u Update) Apply(r Record) (Record, error) {
	next := r.Clone()

	setString(&next.WalletAddress, u.WalletAddress)
	setString(&next.FullName, u.FullName)
	setString(&next.DocumentNumber, u.DocumentNumber)
	setString(&next.DocumentType, u.DocumentType)
	setString(&next.DateOfBirth, u.DateOfBirth)
	setString(&next.Gender, u.Gender)
	setString(&next.IssuingCountry, u.IssuingCountry)
	setString(&next.DocumentImageRef, u.DocumentImageRef)
	setString(&next.LivenessImageRef, u.LivenessImageRef)
	setString(&next.RawExtractionText, u.RawExtractionText)
	setString(&next.MetadataURI, u.MetadataURI)

	if u.LivenessVerified != nil {
		next.LivenessVerified = *u.LivenessVerified
	}
	if u.LivenessTimestamp != nil {
		ts := *u.LivenessTimestamp
		next.LivenessTimestamp = &ts
	}
	if u.ExtractedInfo != nil {
		next.ExtractedInfo = *u.ExtractedInfo
	}
	if u.ExtractionConfidence != nil {
		next.ExtractionConfidence = *u.ExtractionConfidence
	}
	if u.DemoData != nil {
		demo := *u.DemoData
		next.DemoData = &demo
	}

	if err := Validate(next); err != nil {
		return r, err
	}
	return next, nil
}

// Validate checks the structural invariants of a record.
func Validate(r Record) error {
	if r.LivenessVerified && !r.HasLivenessImage() {
		return fmt.Errorf("%w: liveness verified without a captured image", ErrValidation)
	}
	if r.LivenessVerified && r.LivenessTimestamp == nil {
		return fmt.Errorf("%w: liveness verified without a timestamp", ErrValidation)
	}
	c := r.ExtractionConfidence
	if math.IsNaN(c) || c < 0 || c > 1 {
		return fmt.Errorf("%w: extraction confidence %v outside [0,1]", ErrValidation, c)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
