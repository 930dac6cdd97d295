package domain

import (
	"context"
	"errors"

	providerdomain "github.com/paysynclabs/paysync/internal/provider/domain"
)

// RefreshResult is the outcome of a refresh-all: a transactional wipe
// followed by a full re-import of every enabled provider.
type RefreshResult struct {
	DeletedCount  int64                                  `json:"deleted_count"`
	ImportResults map[string]providerdomain.ImportStats `json:"import_results"`
}

type Service interface {
	// ImportProvider reconciles a single provider and returns its run
	// statistics. Per-order failures are counted, never raised.
	ImportProvider(ctx context.Context, providerID string) (providerdomain.ImportStats, error)
	// ImportAll runs every enabled provider; providers run isolated
	// from each other and one failure never prevents the rest.
	ImportAll(ctx context.Context) (map[string]providerdomain.ImportStats, error)
	DeleteAll(ctx context.Context) (int64, error)
	RefreshAll(ctx context.Context) (*RefreshResult, error)
	HandleWebhook(ctx context.Context, providerID string, payload []byte) error
}

var ErrUnknownProvider = errors.New("unknown_provider")
