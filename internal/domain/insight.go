package domain

// MetricKind classifies how a numeric value is used in the source text.
type MetricKind string

const (
	// MetricIncrease marks a value tied to growth language ("up 47.3%").
	MetricIncrease MetricKind = "increase"
	// MetricDecrease marks a value tied to decline language ("dropped 12%").
	MetricDecrease MetricKind = "decrease"
	// MetricRatio marks a multiplicative factor ("3.5x").
	MetricRatio MetricKind = "ratio"
	// MetricAbsolute marks a plain value with no directional cue.
	MetricAbsolute MetricKind = "absolute"
)

// Metric is one numeric finding. The value is always a number literally
// present in the source text; extraction is syntactic, never generated.
type Metric struct {
	Value     float64
	Unit      string // "%", "$", "x" or ""
	Kind      MetricKind
	SourceRef string
	Snippet   string
}

// MetricStats summarizes a set of metric values.
type MetricStats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
	Range  float64
}

// SentimentLabel is a discrete polarity bucket.
type SentimentLabel string

const (
	// SentimentPositive marks polarity above the positive threshold.
	SentimentPositive SentimentLabel = "positive"
	// SentimentNeutral marks polarity between the thresholds.
	SentimentNeutral SentimentLabel = "neutral"
	// SentimentNegative marks polarity below the negative threshold.
	SentimentNegative SentimentLabel = "negative"
)

// SentimentScore is the polarity of a single text item.
type SentimentScore struct {
	SourceRef string
	Polarity  float64 // -1..+1
	Label     SentimentLabel
}

// SentimentSummary aggregates per-item scores into a distribution.
// Samples counts only non-blank inputs; blank items never enter the denominator.
type SentimentSummary struct {
	Scores          []SentimentScore
	Counts          map[SentimentLabel]int
	Shares          map[SentimentLabel]float64 // percentages, sum to 100 when Samples > 0
	AveragePolarity float64
	Samples         int
}

// TrendDirection is the direction of a detected pattern.
type TrendDirection string

const (
	// TrendUp marks a growth pattern.
	TrendUp TrendDirection = "up"
	// TrendDown marks a decline pattern.
	TrendDown TrendDirection = "down"
	// TrendFlat marks a mixed or stable pattern.
	TrendFlat TrendDirection = "flat"
)

// Trend is one detected directional pattern. SupportingRefs is never empty:
// a trend without at least one citation must not be emitted.
type Trend struct {
	Description    string
	Direction      TrendDirection
	SupportingRefs []string
}

// Topic is a recurring keyword across comment texts.
type Topic struct {
	Word  string
	Count int
	Share float64 // percentage of considered words
}
