package app

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"skillswap/internal/adapters/observability"
	"skillswap/internal/domain"
)

const (
	FallbackSummary    = "Analysis failed"
	defaultConcurrency = 8
	maxLoggedRawBytes  = 2048
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

type Analyzer struct {
	gen         domain.TextGenerator
	concurrency int
}

// NewAnalyzer wires the analyzer to a text generator. A nil generator is
// allowed; batch analysis then fails with ErrGeneratorNotConfigured.
func NewAnalyzer(gen domain.TextGenerator, concurrency int) *Analyzer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Analyzer{gen: gen, concurrency: concurrency}
}

// Configured reports whether a text generator is wired in.
func (a *Analyzer) Configured() bool { return a.gen != nil }

// AnalyzeReview scores one review. Model, transport and parse failures all
// degrade to the fallback scorecard; no error reaches the caller.
func (a *Analyzer) AnalyzeReview(ctx context.Context, rv domain.Review) domain.ReviewAnalysis {
	out := domain.ReviewAnalysis{ReviewID: rv.ReviewerID, OriginalContent: rv.Content}

	if a.gen == nil {
		out.Scorecard = FallbackScorecard()
		observability.ObserveAnalysis("fallback")
		return out
	}

	raw, err := a.gen.Generate(ctx, buildPrompt(rv))
	if err == nil {
		var sc domain.Scorecard
		if sc, err = mapScorecard(extractJSON(raw)); err == nil {
			out.Scorecard = sc
			observability.ObserveAnalysis("ok")
			return out
		}
	}

	log.Warn().
		Err(err).
		Str("reviewer_id", rv.ReviewerID).
		Str("raw", truncate(raw, maxLoggedRawBytes)).
		Msg("review analysis failed; using fallback scorecard")
	observability.ObserveAnalysis("fallback")
	out.Scorecard = FallbackScorecard()
	return out
}

// AnalyzeBatch analyzes every review concurrently and aggregates the results.
// individual[i] always corresponds to reviews[i].
func (a *Analyzer) AnalyzeBatch(ctx context.Context, reviews []domain.Review) (domain.BatchAnalysis, error) {
	if len(reviews) == 0 {
		return domain.BatchAnalysis{}, domain.ErrEmptyBatch
	}
	if a.gen == nil {
		return domain.BatchAnalysis{}, domain.ErrGeneratorNotConfigured
	}

	individual := make([]domain.ReviewAnalysis, len(reviews))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, rv := range reviews {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			individual[i] = a.AnalyzeReview(gctx, rv)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return domain.BatchAnalysis{}, fmt.Errorf("analyze batch: %w", err)
	}

	cards := make([]domain.Scorecard, len(individual))
	for i := range individual {
		cards[i] = individual[i].Scorecard
	}
	observability.ObserveBatch(len(reviews))
	return domain.BatchAnalysis{Aggregate: Aggregate(cards), Individual: individual}, nil
}

// FallbackScorecard is the zero-valued sentinel used when a review cannot be analyzed.
func FallbackScorecard() domain.Scorecard {
	return domain.Scorecard{
		KeyStrengths:        []string{},
		AreasForImprovement: []string{},
		OverallSentiment:    domain.SentimentUnknown,
		Summary:             FallbackSummary,
	}
}

// IsFallback reports whether sc is the fallback sentinel.
func IsFallback(sc domain.Scorecard) bool {
	return sc.Summary == FallbackSummary &&
		sc.SentimentScore == 0 && sc.ResponseRating == 0 && sc.OnTimeDeliveryRating == 0 &&
		sc.QualityRating == 0 && sc.CommunicationRating == 0
}

func buildPrompt(rv domain.Review) string {
	var b strings.Builder
	b.WriteString("Analyze this skill provider review in depth:\n")
	fmt.Fprintf(&b, "%q\n", rv.Content)
	if rv.Rating != nil {
		fmt.Fprintf(&b, "Rating: %g/5\n", *rv.Rating)
	}
	b.WriteString(`
Provide JSON with:
- sentimentScore: 1-10
- responseRating: 1-10 (how quickly and effectively the provider responded)
- onTimeDeliveryRating: 1-10 (whether the provider delivered on schedule)
- qualityRating: 1-10 (overall quality of the service)
- communicationRating: 1-10 (effectiveness of the provider's communication)
- overallSentiment: one of positive, negative, neutral, mixed
- keyStrengths: array of short phrases
- areasForImprovement: array of short phrases
- summary: string

Format the response as JSON.`)
	return b.String()
}

// extractJSON prefers a fenced json block; otherwise the whole response is the payload.
func extractJSON(raw string) string {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
