package moderation

import "sort"

// defaultThresholds are the built-in per-category limits. Caller-supplied
// overrides take precedence per category; categories absent from the
// override keep these values.
var defaultThresholds = map[string]float64{
	"sexual":   0.7,
	"violence": 0.8,
	"hate":     0.8,
}

// DefaultThresholds returns a copy of the built-in threshold map.
func DefaultThresholds() map[string]float64 {
	out := make(map[string]float64, len(defaultThresholds))
	for k, v := range defaultThresholds {
		out[k] = v
	}
	return out
}

// MergeThresholds overlays caller overrides onto the built-in defaults.
func MergeThresholds(overrides map[string]float64) map[string]float64 {
	merged := DefaultThresholds()
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Aggregate reduces per-frame results to the maximum score seen per
// category and evaluates the merged thresholds.
//
// Errored results are excluded entirely: a result set where every frame
// errored yields all-zero maxima, not an error. A category exceeds only
// when its maximum is strictly above its threshold; categories without a
// threshold never trip the flag.
func Aggregate(results []ScoreResult, thresholds map[string]float64) AggregateScore {
	maxByCategory := make(map[string]float64, len(thresholds))
	for category := range thresholds {
		maxByCategory[category] = 0
	}

	for _, r := range results {
		if r.Errored {
			continue
		}
		for category, score := range r.CategoryScores {
			if score < 0 {
				score = 0
			}
			if score > maxByCategory[category] {
				maxByCategory[category] = score
			}
		}
	}

	exceeds := false
	for category, limit := range thresholds {
		if maxByCategory[category] > limit {
			exceeds = true
			break
		}
	}

	return AggregateScore{
		MaxByCategory:    maxByCategory,
		ExceedsThreshold: exceeds,
		Thresholds:       thresholds,
	}
}

// FlaggedCategories lists the categories whose maximum exceeds the
// threshold, sorted for stable report output.
func FlaggedCategories(agg AggregateScore) []string {
	var flagged []string
	for category, limit := range agg.Thresholds {
		if agg.MaxByCategory[category] > limit {
			flagged = append(flagged, category)
		}
	}
	sort.Strings(flagged)
	return flagged
}
