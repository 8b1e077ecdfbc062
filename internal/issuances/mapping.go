package issuances

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/veridid/pkg/query"
	"github.com/JaimeStill/veridid/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "issuances", "i").
	Project("id", "ID").
	Project("session_id", "SessionID").
	Project("wallet_address", "WalletAddress").
	Project("metadata_uri", "MetadataURI").
	Project("image_uri", "ImageURI").
	Project("verification_score", "VerificationScore").
	Project("tier", "Tier").
	Project("demo_mode", "DemoMode").
	Project("published_at", "PublishedAt")

var defaultSort = query.SortField{
	Field:      "PublishedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for issuance queries.
// Nil fields are ignored.
type Filters struct {
	WalletAddress *string `json:"wallet_address,omitempty"`
	Tier          *string `json:"tier,omitempty"`
	DemoMode      *bool   `json:"demo_mode,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("WalletAddress", f.WalletAddress).
		WhereEquals("Tier", f.Tier).
		WhereEquals("DemoMode", f.DemoMode)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if w := values.Get("wallet_address"); w != "" {
		f.WalletAddress = &w
	}

	if t := values.Get("tier"); t != "" {
		f.Tier = &t
	}

	if d := values.Get("demo_mode"); d != "" {
		if v, err := strconv.ParseBool(d); err == nil {
			f.DemoMode = &v
		}
	}

	return f
}

func scanIssuance(s repository.Scanner) (Issuance, error) {
	var i Issuance
	err := s.Scan(
		&i.ID,
		&i.SessionID,
		&i.WalletAddress,
		&i.MetadataURI,
		&i.ImageURI,
		&i.VerificationScore,
		&i.Tier,
		&i.DemoMode,
		&i.PublishedAt,
	)
	return i, err
}
