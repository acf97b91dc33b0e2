package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marko-jovanovic/repolist-service/internal/client"
	"github.com/marko-jovanovic/repolist-service/internal/models"
	"github.com/marko-jovanovic/repolist-service/internal/observability"
)

// RepoService provides the fetch capability handed to view models. It calls
// the upstream client once per fetch, enforces the repository URL invariant
// at the boundary, and records fetch metrics. No caching, no retries.
type RepoService struct {
	client client.RepoClient
}

// NewRepoService creates a RepoService over the provided client.
func NewRepoService(client client.RepoClient) *RepoService {
	return &RepoService{client: client}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// FetchTopRepositories satisfies viewmodel.FetchFunc. Result order is the
// upstream order; records without a repository URL cannot be rendered and
// are dropped here, at the boundary, with a warning.
func (s *RepoService) FetchTopRepositories(ctx context.Context) ([]models.RepositorySummary, error) {
	start := time.Now()
	logger := loggerFromContext(ctx)

	items, err := s.client.SearchTopRepositories(ctx)
	if err != nil {
		observability.RepoFetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch top repositories: %w", err)
	}

	kept := make([]models.RepositorySummary, 0, len(items))
	for _, item := range items {
		if item.RepositoryURL == "" {
			observability.RepoFetchDroppedTotal.Inc()
			if logger != nil {
				logger.Warn("dropping repository without URL",
					zap.Int64("id", item.ID),
					zap.String("name", item.Name))
			}
			continue
		}
		kept = append(kept, item)
	}

	observability.RepoFetchesTotal.WithLabelValues("success").Inc()
	observability.RepoFetchItemCount.Observe(float64(len(kept)))
	if logger != nil {
		logger.Debug("repositories fetched",
			zap.Int("count", len(kept)),
			zap.Duration("duration", time.Since(start)))
	}
	return kept, nil
}
