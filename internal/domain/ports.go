package domain

import "context"

type ReviewRepository interface {
	// Write paths
	InsertReview(ctx context.Context, r StoredReview) error

	// Read paths
	ListReviewsForProvider(ctx context.Context, providerID string, pg PageQuery) (ReviewsPage, error)
	ListProviders(ctx context.Context) ([]string, error)
}

// TextGenerator turns a prompt into free-form model text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
