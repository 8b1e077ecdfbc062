package identity_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/veridid/internal/identity"
)

func TestApplyShallowMerge(t *testing.T) {
	base := identity.Record{
		FullName:       "Jane Doe",
		DocumentNumber: "X1",
		Gender:         "Female",
	}

	next, err := identity.Update{
		DocumentNumber: identity.Ptr("X2"),
		IssuingCountry: identity.Ptr("Panama"),
	}.Apply(base)
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", next.FullName)
	assert.Equal(t, "X2", next.DocumentNumber)
	assert.Equal(t, "Female", next.Gender)
	assert.Equal(t, "Panama", next.IssuingCountry)
	assert.Equal(t, "X1", base.DocumentNumber, "source record must not change")
}

func TestApplyRejectsInvalidRecords(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		update identity.Update
	}{
		{
			"verified without image",
			identity.Update{
				LivenessVerified:  identity.Ptr(true),
				LivenessTimestamp: &now,
			},
		},
		{
			"verified without timestamp",
			identity.Update{
				LivenessImageRef: identity.Ptr("ipfs://bafy"),
				LivenessVerified: identity.Ptr(true),
			},
		},
		{
			"confidence above one",
			identity.Update{ExtractionConfidence: identity.Ptr(1.5)},
		},
		{
			"confidence NaN",
			identity.Update{ExtractionConfidence: identity.Ptr(math.NaN())},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := identity.Record{FullName: "Jane Doe"}
			got, err := tt.update.Apply(base)
			require.ErrorIs(t, err, identity.ErrValidation)
			assert.Equal(t, base, got)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := identity.Record{
		LivenessTimestamp: &ts,
		DemoData:          &identity.DemoData{FirstName: "Ada"},
	}

	c := r.Clone()
	c.DemoData.FirstName = "Grace"
	*c.LivenessTimestamp = ts.Add(time.Hour)

	assert.Equal(t, "Ada", r.DemoData.FirstName)
	assert.Equal(t, ts, *r.LivenessTimestamp)
}

func TestPopulated(t *testing.T) {
	r := identity.Record{FullName: "Jane", DocumentType: "Passport", Gender: "  "}
	assert.Equal(t, 2, r.Populated())
	assert.Equal(t, 0, (&identity.Record{}).Populated())
}
