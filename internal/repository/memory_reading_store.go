package repository

import (
	"context"
	"sort"
	"sync"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
	"EnergyForecast/pkg/util"
)

var _ domrepo.ReadingStore = (*MemoryReadingStore)(nil)

// MemoryReadingStore keeps readings in process. Used for store.type=memory and tests.
type MemoryReadingStore struct {
	mu     sync.RWMutex
	meters map[string]map[string]models.DailyRecord
}

func NewMemoryReadingStore() *MemoryReadingStore {
	return &MemoryReadingStore{meters: make(map[string]map[string]models.DailyRecord)}
}

func (s *MemoryReadingStore) Init(context.Context) error { return nil }

func (s *MemoryReadingStore) UpsertReadings(_ context.Context, meterID string, records []models.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meters[meterID]
	if !ok {
		m = make(map[string]models.DailyRecord)
		s.meters[meterID] = m
	}
	for _, r := range records {
		m[util.FormatDate(r.Date)] = r
	}
	return nil
}

func (s *MemoryReadingStore) RecentReadings(_ context.Context, meterID string, limit int) ([]models.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.meters[meterID]
	out := make([]models.DailyRecord, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryReadingStore) Health(context.Context) error { return nil }

func (s *MemoryReadingStore) Close() error { return nil }

// Count returns the number of readings stored for meterID.
func (s *MemoryReadingStore) Count(meterID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meters[meterID])
}

