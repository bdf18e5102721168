package api

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/samcharles93/llamabricks/internal/chain"
)

// DefaultRunRetention is how long finished reports stay retrievable.
const DefaultRunRetention = time.Hour

const maxStoredRuns = 1024

// RunStore keeps recent pipeline reports by run ID.
type RunStore struct {
	cache *ttlcache.Cache[string, *chain.Report]
}

// NewRunStore returns a store that forgets reports after retention.
func NewRunStore(retention time.Duration) *RunStore {
	if retention <= 0 {
		retention = DefaultRunRetention
	}
	return &RunStore{
		cache: ttlcache.New[string, *chain.Report](
			ttlcache.WithTTL[string, *chain.Report](retention),
			ttlcache.WithCapacity[string, *chain.Report](maxStoredRuns),
			ttlcache.WithDisableTouchOnHit[string, *chain.Report](),
		),
	}
}

func (s *RunStore) Save(rep *chain.Report) {
	s.cache.Set(rep.RunID, rep, ttlcache.DefaultTTL)
}

func (s *RunStore) Get(id string) (*chain.Report, bool) {
	item := s.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (s *RunStore) Delete(id string) bool {
	_, ok := s.cache.GetAndDelete(id)
	return ok
}
