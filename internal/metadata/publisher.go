package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/veridid/internal/identity"
	"github.com/JaimeStill/veridid/pkg/storage"
)

// FileName is the object name every metadata document is published under.
const FileName = "metadata.json"

// Publisher uploads assembled documents to content-addressed storage.
type Publisher struct {
	store  storage.System
	logger *slog.Logger
}

func NewPublisher(store storage.System, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		logger: logger.With("system", "publisher"),
	}
}

// Publish serializes doc and stores it, returning its content URI.
// Every failure wraps identity.ErrPublish.
func (p *Publisher) Publish(ctx context.Context, doc Document) (string, error) {
	if err := validate(doc); err != nil {
		return "", fmt.Errorf("%w: %w", identity.ErrPublish, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: encode document: %w", identity.ErrPublish, err)
	}

	obj, err := storage.Put(ctx, p.store, FileName, "application/json", data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", identity.ErrPublish, err)
	}

	p.logger.InfoContext(ctx, "metadata published", "uri", obj.URI(), "bytes", len(data))
	return obj.URI(), nil
}
