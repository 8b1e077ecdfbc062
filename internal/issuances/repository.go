package issuances

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/veridid/pkg/pagination"
	"github.com/JaimeStill/veridid/pkg/query"
	"github.com/JaimeStill/veridid/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an issuance repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "issuances"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Issuance], error) {
	page.Normalize(r.pagination)

	if page.Search != nil {
		lowered := strings.ToLower(*page.Search)
		page.Search = &lowered
	}

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "WalletAddress", "MetadataURI")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count issuances: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanIssuance)
	if err != nil {
		return nil, fmt.Errorf("query issuances: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Issuance, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	i, err := repository.QueryOne(ctx, r.db, q, args, scanIssuance)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &i, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Issuance, error) {
	q := `
		INSERT INTO issuances(id, session_id, wallet_address, metadata_uri, image_uri, verification_score, tier, demo_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, session_id, wallet_address, metadata_uri, image_uri, verification_score, tier, demo_mode, published_at`

	args := []any{
		uuid.New(),
		cmd.SessionID,
		strings.ToLower(cmd.WalletAddress),
		cmd.MetadataURI,
		cmd.ImageURI,
		cmd.VerificationScore,
		cmd.Tier,
		cmd.DemoMode,
	}

	i, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Issuance, error) {
		return repository.QueryOne(ctx, tx, q, args, scanIssuance)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"issuance recorded",
		"id", i.ID,
		"session_id", i.SessionID,
		"metadata_uri", i.MetadataURI,
	)
	return &i, nil
}
