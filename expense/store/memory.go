// Package store provides HistoryStore implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/reloconomics/relocation-engine/expense"
	"github.com/reloconomics/relocation-engine/finance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	series map[key]expense.Series
}

type key struct {
	City     string
	Category expense.Category
}

func NewMemory() *Memory {
	return &Memory{series: make(map[key]expense.Series)}
}

// Add inserts records keeping each (city, category) series ordered by
// MonthIndex. Records are historical facts: there is no update or delete.
func (m *Memory) Add(records ...expense.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		k := key{City: r.City, Category: r.Category}
		s := m.series[k]

		// Binary search for insertion point to keep chronological order
		i := sort.Search(len(s), func(i int) bool {
			return s[i].MonthIndex > r.MonthIndex
		})
		s = append(s, expense.Record{})
		copy(s[i+1:], s[i:])
		s[i] = r
		m.series[k] = s
	}
}

func (m *Memory) Series(_ context.Context, city string, category expense.Category) (expense.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := key{City: city, Category: category}
	s, ok := m.series[k]
	if !ok {
		if !m.hasCityLocked(city) {
			return nil, &finance.NotFoundError{Kind: "city", Key: city}
		}
		return nil, nil // known city, sparse category: empty series
	}
	out := make(expense.Series, len(s))
	copy(out, s)
	return out, nil
}

func (m *Memory) Cities(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var cities []string
	for k := range m.series {
		if !seen[k.City] {
			seen[k.City] = true
			cities = append(cities, k.City)
		}
	}
	sort.Strings(cities)
	return cities, nil
}

func (m *Memory) hasCityLocked(city string) bool {
	for k := range m.series {
		if k.City == city {
			return true
		}
	}
	return false
}

// Compile-time check that Memory implements expense.HistoryStore
var _ expense.HistoryStore = (*Memory)(nil)
