package scoring

import "github.com/ragnar-no-sleep/cynic/judgment"

// ValidateScore reports whether a score falls in the valid [0,100] range,
// grounded on the teacher's eval.ValidateScore.
func ValidateScore(score float64) bool {
	return score >= 0 && score <= 100
}

// AggregateScores computes the unweighted mean of a set of per-voter
// scores, clamped to [0,100]. Grounded on eval.AggregateScores.
func AggregateScores(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var total float64
	for _, s := range scores {
		total += s
	}
	return judgment.Clamp01To100(total / float64(len(scores)))
}

// AggregateScoresWithNames pairs scores with their dimension name so
// callers can build a dimensions map directly, grounded on
// eval.AggregateScoresWithNames.
func AggregateScoresWithNames(named map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(named))
	for name, scores := range named {
		out[name] = AggregateScores(scores)
	}
	return out
}

// WeightedMean computes a weight-weighted average of values, returning 0
// when the total weight is zero.
func WeightedMean(values, weights []float64) float64 {
	if len(values) != len(weights) || len(values) == 0 {
		return 0
	}
	var num, den float64
	for i, v := range values {
		num += v * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}
