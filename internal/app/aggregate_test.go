package app

import (
	"reflect"
	"testing"

	"skillswap/internal/domain"
)

func card(sentiment float64, strengths, improvements []string) domain.Scorecard {
	return domain.Scorecard{
		SentimentScore:      sentiment,
		KeyStrengths:        strengths,
		AreasForImprovement: improvements,
		OverallSentiment:    sentimentLabel("", sentiment),
	}
}

func TestAggregate_MeanRoundedToOneDecimal(t *testing.T) {
	got := Aggregate([]domain.Scorecard{card(8, nil, nil), card(6, nil, nil), card(10, nil, nil)})
	if got.SentimentScore != 8.0 {
		t.Fatalf("sentiment = %v, want 8.0", got.SentimentScore)
	}

	got = Aggregate([]domain.Scorecard{
		{QualityRating: 7, CommunicationRating: 1},
		{QualityRating: 8, CommunicationRating: 2},
		{QualityRating: 8, CommunicationRating: 2},
	})
	if got.QualityRating != 7.7 || got.CommunicationRating != 1.7 {
		t.Fatalf("quality/communication = %v/%v", got.QualityRating, got.CommunicationRating)
	}
	if got.AverageRating != 1.9 {
		t.Fatalf("average = %v", got.AverageRating)
	}
}

func TestAggregate_FrequencyRanking(t *testing.T) {
	got := Aggregate([]domain.Scorecard{
		card(5, []string{"fast", "polite"}, nil),
		card(5, []string{"fast"}, nil),
		card(5, []string{"polite", "fast"}, nil),
	})
	if !reflect.DeepEqual(got.KeyStrengths, []string{"fast", "polite"}) {
		t.Fatalf("strengths = %v", got.KeyStrengths)
	}
	if len(got.AreasForImprovement) != 0 || got.AreasForImprovement == nil {
		t.Fatalf("improvements = %#v", got.AreasForImprovement)
	}
}

func TestAggregate_TopFiveTiesKeepFirstSeenOrder(t *testing.T) {
	got := Aggregate([]domain.Scorecard{
		card(5, nil, []string{"a", "b", "c"}),
		card(5, nil, []string{"d", "e", "f", "g"}),
		card(5, nil, []string{"g"}),
	})
	want := []string{"g", "a", "b", "c", "d"}
	if !reflect.DeepEqual(got.AreasForImprovement, want) {
		t.Fatalf("improvements = %v, want %v", got.AreasForImprovement, want)
	}
}

func TestAggregate_ExactMatchOnly(t *testing.T) {
	got := Aggregate([]domain.Scorecard{
		card(5, []string{"Fast"}, nil),
		card(5, []string{"fast"}, nil),
		card(5, []string{"fast"}, nil),
	})
	if !reflect.DeepEqual(got.KeyStrengths, []string{"fast", "Fast"}) {
		t.Fatalf("strengths = %v", got.KeyStrengths)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	in := []domain.Scorecard{
		card(9, []string{"clear"}, []string{"slow"}),
		card(2, []string{"clear", "kind"}, nil),
		FallbackScorecard(),
	}
	a, b := Aggregate(in), Aggregate(in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregate not deterministic:\n%+v\n%+v", a, b)
	}
	if in[0].KeyStrengths[0] != "clear" || len(in[1].KeyStrengths) != 2 {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestAggregate_OverallSentimentMajority(t *testing.T) {
	cases := []struct {
		name   string
		labels []string
		want   string
	}{
		{"majority", []string{"negative", "positive", "negative"}, domain.SentimentNegative},
		{"tie prefers positive", []string{"negative", "positive"}, domain.SentimentPositive},
		{"unknown ignored", []string{"unknown", "unknown", "mixed"}, domain.SentimentMixed},
		{"all unknown", []string{"unknown"}, domain.SentimentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cards := make([]domain.Scorecard, len(tc.labels))
			for i, l := range tc.labels {
				cards[i] = domain.Scorecard{OverallSentiment: l}
			}
			if got := Aggregate(cards).OverallSentiment; got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)
	if got.Summary != AggregateSummary || got.KeyStrengths == nil || got.AreasForImprovement == nil {
		t.Fatalf("unexpected empty aggregate: %#v", got)
	}
	if got.OverallSentiment != domain.SentimentUnknown {
		t.Fatalf("label = %q", got.OverallSentiment)
	}
}
