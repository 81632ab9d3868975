package domain

const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
	SentimentUnknown  = "unknown"
)

// Scorecard is the fixed-shape result of analyzing one review, and also the
// shape of the aggregate over many. Lists are never nil.
type Scorecard struct {
	SentimentScore       float64  `json:"sentimentScore"`
	ResponseRating       float64  `json:"responseRating"`
	OnTimeDeliveryRating float64  `json:"onTimeDeliveryRating"`
	QualityRating        float64  `json:"qualityRating"`
	CommunicationRating  float64  `json:"communicationRating"`
	AverageRating        float64  `json:"averageRating"`
	OverallSentiment     string   `json:"overallSentiment"`
	KeyStrengths         []string `json:"keyStrengths"`
	AreasForImprovement  []string `json:"areasForImprovement"`
	Summary              string   `json:"summary"`
}

// ReviewAnalysis is a per-review scorecard tagged with the review it came from.
type ReviewAnalysis struct {
	ReviewID        string `json:"reviewId"`
	OriginalContent string `json:"originalContent"`
	Scorecard
}

// BatchAnalysis pairs the aggregate with the per-review results, in input order.
type BatchAnalysis struct {
	Aggregate  Scorecard        `json:"aggregate"`
	Individual []ReviewAnalysis `json:"individual"`
}
