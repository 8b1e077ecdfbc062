// Package issuances keeps the durable record of every published DID metadata document.
package issuances

import (
	"time"

	"github.com/google/uuid"
)

// Issuance is a published metadata document and the identity it describes.
type Issuance struct {
	ID                uuid.UUID `json:"id"`
	SessionID         uuid.UUID `json:"session_id"`
	WalletAddress     string    `json:"wallet_address"`
	MetadataURI       string    `json:"metadata_uri"`
	ImageURI          string    `json:"image_uri"`
	VerificationScore int       `json:"verification_score"`
	Tier              string    `json:"tier"`
	DemoMode          bool      `json:"demo_mode"`
	PublishedAt       time.Time `json:"published_at"`
}

// CreateCommand records a successful publication.
type CreateCommand struct {
	SessionID         uuid.UUID
	WalletAddress     string
	MetadataURI       string
	ImageURI          string
	VerificationScore int
	Tier              string
	DemoMode          bool
}
