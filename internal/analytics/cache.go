package analytics

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/repository"
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// EventLister is the read side of the event log.
type EventLister interface {
	ListEvents(ctx context.Context, filter repository.EventFilter) ([]domain.VisitEvent, error)
}

// Service reads events from storage and returns cached rollups. A cached rollup is
// reused only while the event log slice it was computed from is unchanged, so
// cached and fresh results are always identical.
type Service struct {
	events EventLister
	agg    *Aggregator
	cache  *lru.Cache
	log    *zap.Logger
}

// NewService creates an analytics service. cacheSize <= 0 disables caching.
func NewService(events EventLister, agg *Aggregator, cacheSize int, log *zap.Logger) (*Service, error) {
	s := &Service{events: events, agg: agg, log: log}
	if cacheSize > 0 {
		c, err := lru.New(cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create rollup cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// Aggregator returns the underlying aggregator.
func (s *Service) Aggregator() *Aggregator {
	return s.agg
}

// Rollup aggregates the events of linkIDs over rng. scope names the caller's view
// (a single link or an owner) and is part of the cache key.
func (s *Service) Rollup(ctx context.Context, scope string, linkIDs []int64, rng Range) (Rollup, error) {
	if len(linkIDs) == 0 {
		return s.agg.Aggregate(nil, rng), nil
	}

	from, to := rng.Bounds()
	events, err := s.events.ListEvents(ctx, repository.EventFilter{LinkIDs: linkIDs, From: from, To: to})
	if err != nil {
		return Rollup{}, fmt.Errorf("failed to list events: %w", err)
	}

	if s.cache == nil {
		return s.agg.Aggregate(events, rng), nil
	}

	key := cacheKey(scope, rng, events)
	if cached, ok := s.cache.Get(key); ok {
		s.log.Debug("rollup cache hit", zap.String("scope", scope))
		return cached.(Rollup), nil
	}

	rollup := s.agg.Aggregate(events, rng)
	s.cache.Add(key, rollup)
	return rollup, nil
}

// CacheLen returns the number of cached rollups.
func (s *Service) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// cacheKey fingerprints the event slice by count and highest ID. The log is
// append-only, so any new event changes one of the two.
func cacheKey(scope string, rng Range, events []domain.VisitEvent) string {
	var maxID int64
	for i := range events {
		if events[i].ID > maxID {
			maxID = events[i].ID
		}
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d",
		scope, rng.From.Format(dateLayout), rng.To.Format(dateLayout), len(events), maxID)
}
