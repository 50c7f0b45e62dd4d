package match

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Score computes a [0,1] similarity between two raw titles. Both sides
// are normalized first, then four ratios are computed and the best one
// wins:
//
//   - plain edit-distance ratio
//   - token-sort ratio (word order insensitive)
//   - token-set ratio (tolerates duplicated / subset tokens)
//   - weighted ratio (favors substring matches on unequal lengths)
//
// Each metric is fragile against one class of title variation
// (reordering, subtitle truncation, season suffixes); the max across
// them is robust without a learned model. Callers that compare against
// several title variants should score each variant and keep the max.
func Score(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == "" || nb == "" {
		return 0
	}

	best := fuzzy.Ratio(na, nb)
	if r := fuzzy.TokenSortRatio(na, nb); r > best {
		best = r
	}
	if r := fuzzy.TokenSetRatio(na, nb); r > best {
		best = r
	}
	if r := fuzzy.WRatio(na, nb); r > best {
		best = r
	}

	return float64(best) / 100.0
}
