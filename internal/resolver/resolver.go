package resolver

import (
	"context"
	"fmt"
	"log"

	"anihub/internal/lookup"
	"anihub/internal/match"
)

// Resolver decides which MAL record, if any, a provider title denotes.
type Resolver struct {
	Lookup lookup.Client

	// Score is injectable for tests; defaults to match.Score.
	Score func(a, b string) float64

	// Acceptance is strictly greater-than Threshold. Precision over
	// recall: a wrong mapping pollutes the cache permanently, an
	// unmatched title can be retried.
	Threshold float64
}

func New(client lookup.Client, threshold float64) *Resolver {
	return &Resolver{
		Lookup:    client,
		Score:     match.Score,
		Threshold: threshold,
	}
}

// Resolve returns (malID, true, nil) when a candidate clears the
// threshold, (0, false, nil) when the lookup succeeded but nothing is
// an acceptable match, and (0, false, err) when the lookup itself
// failed. The caller decides whether failures are cached as misses.
//
// Candidates are scanned in response order and ties keep the
// first-seen candidate, so the result depends on the lookup service's
// ordering. That nondeterminism is accepted and documented, not fixed.
func (r *Resolver) Resolve(ctx context.Context, title string) (int64, bool, error) {
	candidates, err := r.Lookup.Search(ctx, title)
	if err != nil {
		return 0, false, fmt.Errorf("resolve %q: %w", title, err)
	}
	if len(candidates) == 0 {
		return 0, false, nil
	}

	var (
		bestID    int64
		bestScore = -1.0
	)
	for _, c := range candidates {
		s := r.Score(title, c.Title)
		if c.TitleEnglish != "" {
			if s2 := r.Score(title, c.TitleEnglish); s2 > s {
				s = s2
			}
		}
		if s > bestScore {
			bestScore = s
			bestID = c.MalID
		}
	}

	if bestScore > r.Threshold {
		log.Printf("[resolver] %q -> mal_id=%d (score %.3f)", title, bestID, bestScore)
		return bestID, true, nil
	}

	log.Printf("[resolver] %q unmatched (best score %.3f, %d candidates)", title, bestScore, len(candidates))
	return 0, false, nil
}
