package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"skillswap/internal/domain"
)

const (
	defaultReviewPage  = 50
	defaultMaxAnalyzed = 50
	maxCachedPageBytes = 1_000_000
	analysisKeyPrefix  = "analysis:"
	reviewsKeyPrefix   = "reviews:"
)

type ReviewService struct {
	repo        domain.ReviewRepository
	cache       domain.Cache
	analyzer    *Analyzer
	cacheTTL    time.Duration
	analysisTTL time.Duration
	maxAnalyzed int
	now         func() time.Time
}

type ReviewServiceOptions struct {
	CacheTTL    time.Duration
	AnalysisTTL time.Duration
	MaxAnalyzed int
}

func NewReviewService(r domain.ReviewRepository, c domain.Cache, a *Analyzer, opts ReviewServiceOptions) *ReviewService {
	if opts.MaxAnalyzed <= 0 {
		opts.MaxAnalyzed = defaultMaxAnalyzed
	}
	return &ReviewService{
		repo:        r,
		cache:       c,
		analyzer:    a,
		cacheTTL:    opts.CacheTTL,
		analysisTTL: opts.AnalysisTTL,
		maxAnalyzed: opts.MaxAnalyzed,
		now:         time.Now,
	}
}

// Submit validates and stores a new review, then drops the provider's cached views.
func (s *ReviewService) Submit(ctx context.Context, in domain.NewReview) (domain.StoredReview, error) {
	if err := validateNewReview(in); err != nil {
		return domain.StoredReview{}, err
	}
	now := s.now().UTC()
	rv := domain.StoredReview{
		ReviewID:       uuid.NewString(),
		ReviewerUserID: strings.TrimSpace(in.ReviewerUserID),
		ReviewedUserID: strings.TrimSpace(in.ReviewedUserID),
		SkillID:        strings.TrimSpace(in.SkillID),
		Rating:         in.Rating,
		Comment:        in.Comment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.InsertReview(ctx, rv); err != nil {
		return domain.StoredReview{}, fmt.Errorf("insert review: %w", err)
	}
	s.invalidateProvider(ctx, rv.ReviewedUserID)
	return rv, nil
}

func validateNewReview(in domain.NewReview) error {
	switch {
	case strings.TrimSpace(in.ReviewerUserID) == "":
		return fmt.Errorf("%w: reviewerUserId is required", domain.ErrInvalidReview)
	case strings.TrimSpace(in.ReviewedUserID) == "":
		return fmt.Errorf("%w: reviewedUserId is required", domain.ErrInvalidReview)
	case strings.TrimSpace(in.SkillID) == "":
		return fmt.Errorf("%w: skillId is required", domain.ErrInvalidReview)
	case in.Rating < 1 || in.Rating > 5:
		return fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidReview)
	}
	return nil
}

// ListForProvider returns the newest reviews a provider received, cache-aside.
func (s *ReviewService) ListForProvider(ctx context.Context, providerID string, limit int) (domain.ReviewsPage, error) {
	if limit <= 0 {
		limit = defaultReviewPage
	}
	pg := domain.PageQuery{Limit: limit, Sort: "-created_at"}
	key := fmt.Sprintf("%s%s:%d:%s", reviewsKeyPrefix, providerID, pg.Limit, pg.Sort)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.repo.ListReviewsForProvider(ctx, providerID, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	copyRS := deepCopyReviewsPage(rs)
	if b, _ := json.Marshal(copyRS); len(b) < maxCachedPageBytes {
		_ = s.cache.Set(ctx, key, copyRS, int(s.cacheTTL.Seconds()))
	}
	return copyRS, nil
}

// ProviderAnalysis returns the provider's scorecard, computing and caching it on a miss.
func (s *ReviewService) ProviderAnalysis(ctx context.Context, providerID string) (domain.BatchAnalysis, error) {
	var out domain.BatchAnalysis
	if ok, _ := s.cache.Get(ctx, analysisKeyPrefix+providerID, &out); ok {
		return out, nil
	}
	return s.Reanalyze(ctx, providerID)
}

// Reanalyze recomputes the provider's scorecard from storage and refreshes the cache.
func (s *ReviewService) Reanalyze(ctx context.Context, providerID string) (domain.BatchAnalysis, error) {
	page, err := s.repo.ListReviewsForProvider(ctx, providerID, domain.PageQuery{Limit: s.maxAnalyzed, Sort: "-created_at"})
	if err != nil {
		return domain.BatchAnalysis{}, err
	}
	reviews := toAnalyzable(page.Items)
	if len(reviews) == 0 {
		return domain.BatchAnalysis{}, domain.ErrEmptyBatch
	}

	res, err := s.analyzer.AnalyzeBatch(ctx, reviews)
	if err != nil {
		return domain.BatchAnalysis{}, err
	}
	if allFallback(res.Individual) {
		// all-fallback results are never cached
		log.Warn().Str("provider_id", providerID).Int("reviews", len(res.Individual)).Msg("every review fell back; analysis not cached")
		return res, nil
	}
	if err := s.cache.Set(ctx, analysisKeyPrefix+providerID, res, int(s.analysisTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("provider_id", providerID).Msg("cache analysis failed")
	}
	return res, nil
}

func allFallback(in []domain.ReviewAnalysis) bool {
	for _, ra := range in {
		if !IsFallback(ra.Scorecard) {
			return false
		}
	}
	return true
}

// ListProviders returns every provider that has received at least one review.
func (s *ReviewService) ListProviders(ctx context.Context) ([]string, error) {
	return s.repo.ListProviders(ctx)
}

// toAnalyzable keeps reviews with a comment; rating-only rows have nothing to analyze.
func toAnalyzable(in []domain.StoredReview) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, r := range in {
		if r.Comment == nil || strings.TrimSpace(*r.Comment) == "" {
			continue
		}
		rating := float64(r.Rating)
		out = append(out, domain.Review{
			Content:    *r.Comment,
			Rating:     &rating,
			Date:       r.CreatedAt,
			ReviewerID: r.ReviewerUserID,
		})
	}
	return out
}

func (s *ReviewService) invalidateProvider(ctx context.Context, providerID string) {
	_ = s.cache.Del(ctx, analysisKeyPrefix+providerID)
	// API default is limit=50; clear a couple more common limits too.
	for _, lim := range []int{defaultReviewPage, 100, 200} {
		_ = s.cache.Del(ctx, fmt.Sprintf("%s%s:%d:%s", reviewsKeyPrefix, providerID, lim, "-created_at"))
	}
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	out := domain.ReviewsPage{NextCursor: in.NextCursor, Items: []domain.StoredReview{}}
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.StoredReview, n)
		copy(out.Items, in.Items)
	}
	return out
}
