package loader

import (
	"context"
	"encoding/json"
	"iter"

	"devaudience/pkg/devto"
	"devaudience/pkg/models"
)

// PrimaryClient defines the DEV API operations the loaders need
type PrimaryClient interface {
	Pages(ctx context.Context, req devto.PageRequest) iter.Seq2[[]json.RawMessage, error]
	PageSize() int
	UserDetails(ctx context.Context, username string) (*devto.UserRecord, error)
}

// Enricher looks up the public activity of a linked GitHub account. A nil
// result without error means the account does not exist.
type Enricher interface {
	Enrich(ctx context.Context, handle string) (*models.Enrichment, error)
}
