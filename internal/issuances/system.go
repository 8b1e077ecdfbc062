package issuances

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/veridid/pkg/pagination"
)

// System defines the public contract for issuance operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Issuance], error)

	Find(ctx context.Context, id uuid.UUID) (*Issuance, error)
	Create(ctx context.Context, cmd CreateCommand) (*Issuance, error)
}
