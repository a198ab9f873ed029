// Package query is the read-only boundary over the alert cache. Nothing
// here can mutate the cache; handlers and clients see snapshots only.
package query

import (
	"sort"

	"github.com/safeahead/hazard-alerts/internal/cache"
	"github.com/safeahead/hazard-alerts/internal/models"
)

type Filter struct {
	Severity *models.Severity
	Type     *models.AlertType
	Limit    int
}

type Service struct {
	cache *cache.AlertCache
}

func NewService(c *cache.AlertCache) *Service {
	return &Service{cache: c}
}

// ListAlerts returns a filtered, newest-first view of the current snapshot.
func (s *Service) ListAlerts(f Filter) []models.Alert {
	alerts := s.cache.Snapshot()

	filtered := alerts[:0]
	for _, a := range alerts {
		if f.Severity != nil && a.Severity != *f.Severity {
			continue
		}
		if f.Type != nil && a.Type != *f.Type {
			continue
		}
		filtered = append(filtered, a)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].GeneratedAt.Equal(filtered[j].GeneratedAt) {
			return filtered[i].GeneratedAt.After(filtered[j].GeneratedAt)
		}
		return filtered[i].DedupKey < filtered[j].DedupKey
	})

	if f.Limit > 0 && len(filtered) > f.Limit {
		filtered = filtered[:f.Limit]
	}
	return filtered
}
