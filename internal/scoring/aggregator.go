package scoring

import (
	"atscore/internal/config"
	"atscore/internal/types"
)

// Aggregator folds dimension scores into the overall score and its interval
type Aggregator struct {
	defaults config.DimensionWeights
	interval config.IntervalConfig
}

// NewAggregator creates an aggregator using the configured default weights
func NewAggregator(cfg config.ScoringConfig) *Aggregator {
	return &Aggregator{defaults: cfg.Weights, interval: cfg.Interval}
}

// Weights resolves the effective weight of every dimension in scores.
// Positive benchmark weights override the defaults; the result sums to 1.
func (a *Aggregator) Weights(scores []types.DimensionScore, benchmarkWeights map[types.Dimension]float64) map[types.Dimension]float64 {
	weights := make(map[types.Dimension]float64, len(scores))
	total := 0.0
	for _, ds := range scores {
		w := a.defaults.Get(ds.Dimension)
		if bw, ok := benchmarkWeights[ds.Dimension]; ok && bw > 0 {
			w = bw
		}
		w = max(w, 0)
		weights[ds.Dimension] = w
		total += w
	}

	if total == 0 {
		for d := range weights {
			weights[d] = 1 / float64(len(weights))
		}
		return weights
	}
	for d, w := range weights {
		weights[d] = w / total
	}
	return weights
}

// Aggregate computes the overall score, confidence and interval. ID, Timestamp
// and BenchmarkUsed are left for the caller.
func (a *Aggregator) Aggregate(scores []types.DimensionScore, benchmarkWeights map[types.Dimension]float64) types.ATSScoreResult {
	weights := a.Weights(scores, benchmarkWeights)

	// summing in dimension order keeps the result independent of map iteration
	ordered := orderScores(scores)
	overall, confidence := 0.0, 0.0
	for _, ds := range ordered {
		w := weights[ds.Dimension]
		overall += w * clampScore(ds.Score)
		confidence += w * clamp(ds.Confidence, 0, 1)
	}
	overall = clampScore(overall)
	confidence = clamp(confidence, 0, 1)

	halfWidth := 0.0
	if len(ordered) > 0 {
		halfWidth = min(a.interval.MaxHalfWidth, a.interval.BaseHalfWidth/max(confidence, a.interval.MinConfidence))
	}

	return types.ATSScoreResult{
		Overall: overall,
		Interval: types.ConfidenceInterval{
			Lower: clampScore(overall - halfWidth),
			Upper: clampScore(overall + halfWidth),
		},
		Confidence: confidence,
		Dimensions: ordered,
		Weights:    weights,
	}
}

// orderScores returns a copy of scores sorted by dimension order
func orderScores(scores []types.DimensionScore) []types.DimensionScore {
	out := make([]types.DimensionScore, 0, len(scores))
	for _, d := range types.Dimensions {
		for _, ds := range scores {
			if ds.Dimension == d {
				out = append(out, ds)
			}
		}
	}
	for _, ds := range scores {
		if !ds.Dimension.Valid() {
			out = append(out, ds)
		}
	}
	return out
}
