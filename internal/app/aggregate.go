package app

import (
	"math"
	"sort"

	"skillswap/internal/domain"
)

const (
	AggregateSummary = "Aggregate analysis of all reviews"
	maxRankedPhrases = 5
)

// Aggregate folds per-review scorecards into one. Numeric dimensions are
// means rounded to one decimal; phrase lists keep the five most frequent
// exact-match entries, ties in first-seen order. It has no side effects.
func Aggregate(cards []domain.Scorecard) domain.Scorecard {
	out := domain.Scorecard{
		KeyStrengths:        []string{},
		AreasForImprovement: []string{},
		OverallSentiment:    domain.SentimentUnknown,
		Summary:             AggregateSummary,
	}
	if len(cards) == 0 {
		return out
	}

	var sentiment, response, timeliness, quality, communication float64
	strengths := make([][]string, 0, len(cards))
	improvements := make([][]string, 0, len(cards))
	labels := make([]string, 0, len(cards))
	for _, c := range cards {
		sentiment += c.SentimentScore
		response += c.ResponseRating
		timeliness += c.OnTimeDeliveryRating
		quality += c.QualityRating
		communication += c.CommunicationRating
		strengths = append(strengths, c.KeyStrengths)
		improvements = append(improvements, c.AreasForImprovement)
		labels = append(labels, c.OverallSentiment)
	}
	n := float64(len(cards))
	out.SentimentScore = round1(sentiment / n)
	out.ResponseRating = round1(response / n)
	out.OnTimeDeliveryRating = round1(timeliness / n)
	out.QualityRating = round1(quality / n)
	out.CommunicationRating = round1(communication / n)
	out.AverageRating = averageOf(out)
	out.KeyStrengths = rankPhrases(strengths, maxRankedPhrases)
	out.AreasForImprovement = rankPhrases(improvements, maxRankedPhrases)
	out.OverallSentiment = majorityLabel(labels)
	return out
}

// rankPhrases counts exact phrases across lists and returns the top limit by
// descending count; equal counts keep first-seen order.
func rankPhrases(lists [][]string, limit int) []string {
	counts := map[string]int{}
	var order []string
	for _, l := range lists {
		for _, p := range l {
			if _, seen := counts[p]; !seen {
				order = append(order, p)
			}
			counts[p]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > limit {
		order = order[:limit]
	}
	return append([]string{}, order...)
}

// majorityLabel votes over per-review labels, ignoring unknown ones.
func majorityLabel(labels []string) string {
	counts := map[string]int{}
	for _, l := range labels {
		counts[l]++
	}
	best, bestN := domain.SentimentUnknown, 0
	for _, l := range []string{domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentMixed} {
		if counts[l] > bestN {
			best, bestN = l, counts[l]
		}
	}
	return best
}

func averageOf(c domain.Scorecard) float64 {
	return round1((c.SentimentScore + c.ResponseRating + c.OnTimeDeliveryRating + c.QualityRating + c.CommunicationRating) / 5)
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
