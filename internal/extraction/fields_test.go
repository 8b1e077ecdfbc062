package extraction_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/veridid/internal/extraction"
)

func TestNormalizeDates(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1990-01-01", "1990-01-01"},
		{"1990/01/31", "1990-01-31"},
		{"31.01.1990", "1990-01-31"},
		{"01/31/1990", "1990-01-31"},
		{"31 January 1990", "1990-01-31"},
		{"31 JAN 1990", "1990-01-31"},
		{"Jan 31, 1990", "1990-01-31"},
		{"sometime in 1990", "sometime in 1990"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := extraction.Normalize(extraction.Fields{DateOfBirth: tt.in})
			assert.Equal(t, tt.want, got.DateOfBirth)
		})
	}
}

func TestNormalizeConfidence(t *testing.T) {
	assert.Equal(t, 0.0, extraction.Normalize(extraction.Fields{Confidence: math.NaN()}).Confidence)
	assert.Equal(t, 0.0, extraction.Normalize(extraction.Fields{Confidence: -1}).Confidence)
	assert.Equal(t, 1.0, extraction.Normalize(extraction.Fields{Confidence: 7}).Confidence)
}

func TestBackfillLeavesPopulatedFields(t *testing.T) {
	full := extraction.Fields{
		FullName:       "A",
		DocumentNumber: "B",
		DocumentType:   "C",
		DateOfBirth:    "D",
		Gender:         "E",
		IssuingCountry: "F",
	}

	got, filled := extraction.Backfill(full)
	assert.False(t, filled)
	assert.Equal(t, full, got)
}

func TestConfidenceLevel(t *testing.T) {
	assert.Equal(t, "high", extraction.ConfidenceLevel(0.92))
	assert.Equal(t, "medium", extraction.ConfidenceLevel(0.7))
	assert.Equal(t, "low", extraction.ConfidenceLevel(0.6))
}
