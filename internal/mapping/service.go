package mapping

import (
	"context"
	"fmt"
	"log"
	"sync"

	"anihub/internal/events"
	"anihub/pkg/models"
)

// TitleResolver is the fuzzy-match collaborator. Implemented by
// resolver.Resolver; tests use fakes.
type TitleResolver interface {
	Resolve(ctx context.Context, title string) (int64, bool, error)
}

// Resolution pairs an input entry with its MAL id. MalID is nil when
// the show is confirmed unmatched (or the lookup failed this attempt).
type Resolution struct {
	Entry models.ShowEntry `json:"entry"`
	MalID *int64           `json:"mal_id"`
}

// Service is the reconciliation entry point. It holds no state of its
// own; everything durable goes through the repo.
type Service struct {
	Repo     *Repo
	Resolver TitleResolver
	Hub      *events.Hub // optional; nil disables event fanout

	// CacheFailures persists a failed lookup as a permanent miss,
	// matching the historical behavior. Off by default so transient
	// failures stay retry-eligible.
	CacheFailures bool

	// Workers bounds parallel resolutions within one Reconcile call.
	Workers int
}

func NewService(repo *Repo, res TitleResolver, hub *events.Hub, cacheFailures bool, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		Repo:          repo,
		Resolver:      res,
		Hub:           hub,
		CacheFailures: cacheFailures,
		Workers:       workers,
	}
}

// Reconcile resolves each entry to its MAL id, cache first, lookup on
// miss. The output preserves input order. Entries are independent and
// run on a bounded worker pool; the mapping store is the only shared
// mutation point. A store error fails the whole call — silently
// treating it as "no mapping" could durably record a wrong miss.
func (s *Service) Reconcile(ctx context.Context, entries []models.ShowEntry) ([]Resolution, error) {
	results := make([]Resolution, len(entries))

	sem := make(chan struct{}, s.Workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, entry models.ShowEntry) {
			defer wg.Done()
			defer func() { <-sem }()

			malID, err := s.reconcileOne(ctx, entry)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i] = Resolution{Entry: entry, MalID: malID}
		}(i, entry)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// reconcileOne returns the entry's MAL id, consulting the cache first.
// An existing row is authoritative either way: a non-NULL mal_id is
// never re-resolved, and a NULL one is a confirmed miss that is not
// retried automatically. On a cache miss the outcome is persisted
// before returning, except for lookup failures when CacheFailures is
// off.
func (s *Service) reconcileOne(ctx context.Context, entry models.ShowEntry) (*int64, error) {
	m, err := s.Repo.GetByShowID(ctx, entry.ShowID)
	if err != nil {
		return nil, fmt.Errorf("mapping lookup %s: %w", entry.ShowID, err)
	}
	if m != nil {
		return m.MalID, nil
	}

	malID, ok, rerr := s.Resolver.Resolve(ctx, entry.Title)
	if rerr != nil {
		log.Printf("[mapping] lookup failed for %q: %v", entry.Title, rerr)
		if !s.CacheFailures {
			// nothing written; the next reconcile retries
			return nil, nil
		}
		ok = false
	}

	var resolved *int64
	if ok {
		v := malID
		resolved = &v
	}

	if err := s.Repo.Upsert(ctx, entry.ShowID, resolved); err != nil {
		return nil, fmt.Errorf("persist mapping %s: %w", entry.ShowID, err)
	}
	s.publish(entry.ShowID, resolved)

	return resolved, nil
}

// LookupByExternal resolves a MAL id back to the provider's show id.
// No fuzzy logic on this path: unknown ids are ErrNotFound.
func (s *Service) LookupByExternal(ctx context.Context, malID int64) (string, error) {
	m, err := s.Repo.GetByMalID(ctx, malID)
	if err != nil {
		return "", fmt.Errorf("lookup by mal_id %d: %w", malID, err)
	}
	if m == nil {
		return "", ErrNotFound
	}
	return m.ShowID, nil
}

func (s *Service) publish(showID string, malID *int64) {
	if s.Hub == nil {
		return
	}
	evtType := events.TypeMappingResolved
	if malID == nil {
		evtType = events.TypeMappingMiss
	}
	s.Hub.BroadcastJSON(events.NewMappingEvent(evtType, showID, malID))
}
