package workflow

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/veridid/internal/identity"
)

// clearOwned zeroes the record fields owned by step.
func clearOwned(step Step, r *identity.Record) {
	switch step {
	case StepWallet:
		r.WalletAddress = ""
	case StepExtraction:
		r.FullName = ""
		r.DocumentNumber = ""
		r.DocumentType = ""
		r.DateOfBirth = ""
		r.Gender = ""
		r.IssuingCountry = ""
		r.DocumentImageRef = ""
		r.ExtractedInfo = false
		r.ExtractionConfidence = 0
		r.RawExtractionText = ""
	case StepLiveness:
		r.LivenessImageRef = ""
		r.LivenessVerified = false
		r.LivenessTimestamp = nil
	case StepPublish:
		r.MetadataURI = ""
		r.DemoData = nil
	}
}

// requirements returns the missing required fields for step.
func requirements(step Step, r identity.Record) []string {
	var missing []string
	need := func(ok bool, field string) {
		if !ok {
			missing = append(missing, field)
		}
	}

	switch step {
	case StepWallet:
		need(r.WalletAddress != "", "wallet_address")
	case StepExtraction:
		need(r.ExtractedInfo, "extracted_info")
		need(strings.TrimSpace(r.FullName) != "", "full_name")
		need(strings.TrimSpace(r.DocumentNumber) != "", "document_number")
		need(strings.TrimSpace(r.DocumentType) != "", "document_type")
	case StepLiveness:
		need(r.HasLivenessImage(), "liveness_image_ref")
		need(r.LivenessVerified, "liveness_verified")
	case StepPublish:
		need(r.MetadataURI != "", "metadata_uri")
	}
	return missing
}

func checkRequirements(step Step, r identity.Record) error {
	if missing := requirements(step, r); len(missing) > 0 {
		return fmt.Errorf(
			"%w: %s step missing %s",
			identity.ErrValidation, step, strings.Join(missing, ", "),
		)
	}
	return nil
}
