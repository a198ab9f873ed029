// Package client implements the disconnected side of the system: a local
// SQLite store holding the last successfully synced alert set, and a syncer
// that refreshes it when the backend is reachable. Reads always come from
// the local store; a failed sync leaves it untouched.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/safeahead/hazard-alerts/internal/guidance"
	"github.com/safeahead/hazard-alerts/internal/models"
)

// ErrSyncFailed wraps any transport or decode failure of a sync attempt.
// The local store remains valid and is the fallback.
var ErrSyncFailed = errors.New("sync failed")

type alertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

type guidanceResponse struct {
	Guidance []guidance.Topic `json:"guidance"`
}

// SyncResult describes one sync attempt. LastSync is the most recent
// successful sync time, whether or not this attempt was it.
type SyncResult struct {
	Online     bool
	AlertCount int
	LastSync   time.Time
}

type Syncer struct {
	backendURL string
	client     *http.Client
	store      *Store
}

func NewSyncer(backendURL string, timeout time.Duration, store *Store) *Syncer {
	return &Syncer{
		backendURL: backendURL,
		client: &http.Client{
			Timeout: timeout,
		},
		store: store,
	}
}

// Sync attempts one pull from the backend. The alert listing is fetched
// and decoded in full before anything is written, so a mid-flight failure
// can never leave a partial merge behind.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	attemptID := uuid.NewString()
	slog.Debug("sync attempt", "attempt_id", attemptID, "backend", s.backendURL)

	var resp alertsResponse
	if err := s.getJSON(ctx, "/api/alerts?limit=500", &resp); err != nil {
		last, lastErr := s.store.LastSync(ctx)
		if lastErr != nil {
			slog.Warn("could not read last sync time", "error", lastErr)
		}
		return SyncResult{Online: false, LastSync: last},
			fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	for _, a := range resp.Alerts {
		if err := s.store.PutAlert(ctx, a); err != nil {
			return SyncResult{Online: true}, fmt.Errorf("storing alert %s: %w", a.DedupKey, err)
		}
	}

	now := time.Now().UTC()
	if err := s.store.SetLastSync(ctx, now); err != nil {
		return SyncResult{Online: true}, fmt.Errorf("recording sync time: %w", err)
	}

	s.syncGuidance(ctx)

	slog.Debug("sync complete", "attempt_id", attemptID, "alerts", len(resp.Alerts))
	return SyncResult{
		Online:     true,
		AlertCount: len(resp.Alerts),
		LastSync:   now,
	}, nil
}

// syncGuidance refreshes the cached guidance set. Guidance is static
// content; a failure here degrades nothing, so it never fails the sync.
func (s *Syncer) syncGuidance(ctx context.Context) {
	var resp guidanceResponse
	if err := s.getJSON(ctx, "/api/guidance", &resp); err != nil {
		slog.Warn("guidance sync failed", "error", err)
		return
	}
	for _, t := range resp.Guidance {
		if err := s.store.PutGuidance(ctx, t); err != nil {
			slog.Warn("storing guidance failed", "id", t.ID, "error", err)
			return
		}
	}
}

func (s *Syncer) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.backendURL+path, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return nil
}
