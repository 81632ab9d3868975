package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"skillswap/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Models drift between camelCase, snake_case and nested shapes; accept the common ones.
var scorecardAliases = map[string][]string{
	"sentiment":     {"sentimentScore", "sentiment_score", "sentiment.score", "scores.sentiment"},
	"response":      {"responseRating", "response_rating", "responsiveness", "scores.response"},
	"timeliness":    {"onTimeDeliveryRating", "on_time_delivery_rating", "timeliness", "onTimeDelivery", "scores.onTimeDelivery"},
	"quality":       {"qualityRating", "quality_rating", "quality", "scores.quality"},
	"communication": {"communicationRating", "communication_rating", "communication", "scores.communication"},
	"strengths":     {"keyStrengths", "key_strengths", "strengths"},
	"improvements":  {"areasForImprovement", "areas_for_improvement", "improvements", "weaknesses"},
	"summary":       {"summary", "overview"},
	"overall":       {"overallSentiment", "overall_sentiment", "sentiment.label", "sentimentLabel"},
}

var errNotObject = errors.New("model response is not a JSON object")

type missingFieldError struct{ field string }

func (e missingFieldError) Error() string { return "model response missing " + e.field }

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0" or "7/10").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if i := strings.IndexByte(s, '/'); i > 0 {
				s = strings.TrimSpace(s[:i])
			}
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstSliceStrings: first list found under paths, accepting strings or {text/name/point} objects.
// found reports whether any path held a list, even an empty one.
func firstSliceStrings(m map[string]any, paths ...string) (out []string, found bool) {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out = make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if s := strings.TrimSpace(t); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				for _, f := range []string{"text", "name", "point"} {
					if s, ok := t[f].(string); ok && strings.TrimSpace(s) != "" {
						out = append(out, strings.TrimSpace(s))
						break
					}
				}
			}
		}
		return out, true
	}
	return []string{}, false
}

func clampScore(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}

/********** model response mapper **********/

// mapScorecard decodes one model JSON payload into a Scorecard. Every numeric
// dimension must be present; list and summary fields default to empty.
func mapScorecard(payload string) (domain.Scorecard, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return domain.Scorecard{}, fmt.Errorf("decode model JSON: %w", err)
	}
	if m == nil {
		return domain.Scorecard{}, errNotObject
	}

	dims := make(map[string]float64, 5)
	for _, key := range []string{"sentiment", "response", "timeliness", "quality", "communication"} {
		f := getFloatFlexible(m, scorecardAliases[key]...)
		if f == nil {
			return domain.Scorecard{}, missingFieldError{field: scorecardAliases[key][0]}
		}
		dims[key] = clampScore(*f)
	}

	strengths, _ := firstSliceStrings(m, scorecardAliases["strengths"]...)
	improvements, _ := firstSliceStrings(m, scorecardAliases["improvements"]...)

	sc := domain.Scorecard{
		SentimentScore:       dims["sentiment"],
		ResponseRating:       dims["response"],
		OnTimeDeliveryRating: dims["timeliness"],
		QualityRating:        dims["quality"],
		CommunicationRating:  dims["communication"],
		KeyStrengths:         strengths,
		AreasForImprovement:  improvements,
		Summary:              firstNonEmptyAlias(m, scorecardAliases, "summary"),
	}
	sc.AverageRating = averageOf(sc)
	sc.OverallSentiment = sentimentLabel(firstNonEmptyAlias(m, scorecardAliases, "overall"), sc.SentimentScore)
	return sc, nil
}

// sentimentLabel keeps a recognised model label, otherwise derives one from the score.
func sentimentLabel(modelLabel string, score float64) string {
	switch l := strings.ToLower(strings.TrimSpace(modelLabel)); l {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentMixed:
		return l
	}
	switch {
	case score >= 7:
		return domain.SentimentPositive
	case score <= 4:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
