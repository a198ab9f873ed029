package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/goleak"

	"github.com/safeahead/hazard-alerts/internal/cache"
	"github.com/safeahead/hazard-alerts/internal/config"
	"github.com/safeahead/hazard-alerts/internal/feeds"
	"github.com/safeahead/hazard-alerts/internal/generator"
	"github.com/safeahead/hazard-alerts/internal/models"
	"github.com/safeahead/hazard-alerts/internal/observability"
	"github.com/safeahead/hazard-alerts/internal/stream"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	pollRegion = config.RegionConfig{
		CenterLat: 12.9716,
		CenterLon: 77.5946,
		RadiusKm:  500,
	}
	pollAlerts = config.AlertsConfig{
		TTL:              30 * time.Minute,
		GeohashPrecision: 4,
		TimeBucket:       30 * time.Minute,
		SeismicMinMag:    3.0,
		SeismicWarnMag:   4.0,
		SeismicCritMag:   6.0,
	}
)

// stubSource returns canned batches in order, repeating the last one.
type stubSource struct {
	name    string
	mu      sync.Mutex
	batches [][]models.Event
	err     error
	calls   int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	idx := s.calls - 1
	if idx >= len(s.batches) {
		idx = len(s.batches) - 1
	}
	return s.batches[idx], nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func seismic(id string, mag float64) models.Event {
	return models.Event{
		Source:     models.EventSourceSeismic,
		ExternalID: id,
		Latitude:   pollRegion.CenterLat,
		Longitude:  pollRegion.CenterLon,
		Magnitude:  mag,
		ObservedAt: time.Now().UTC(),
	}
}

func newTestPoller(sources []feeds.Source, interval time.Duration, b *stream.Broadcaster) (*Poller, *cache.AlertCache) {
	clock := clockwork.NewRealClock()
	c := cache.New(clock)
	gen := generator.New(pollRegion, pollAlerts, clock)
	p := New(sources, gen, c, b, observability.NewMetricsForTesting(), interval, time.Second)
	return p, c
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPoller_StartStop(t *testing.T) {
	p, _ := newTestPoller(nil, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	cancel()
	p.Stop()

	// Should complete without hanging
}

func TestPoller_PopulatesCache(t *testing.T) {
	src := &stubSource{
		name:    "stub-seismic",
		batches: [][]models.Event{{seismic("eq-123", 5.2)}},
	}
	p, c := newTestPoller([]feeds.Source{src}, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	waitFor(t, 2*time.Second, func() bool { return c.Len() == 1 })

	snap := c.Snapshot()
	if snap[0].DedupKey != "seismic:eq-123" {
		t.Errorf("expected dedup key seismic:eq-123, got %s", snap[0].DedupKey)
	}
	if snap[0].Severity != models.SeverityWarning {
		t.Errorf("expected warning severity for M5.2, got %s", snap[0].Severity)
	}
	if p.LastCycle().IsZero() {
		t.Error("expected LastCycle to be set after the initial cycle")
	}

	cancel()
	p.Stop()
}

func TestPoller_DedupAcrossCycles(t *testing.T) {
	// The same event in consecutive cycles must never create a second
	// cache entry; the second cycle only refreshes the first.
	src := &stubSource{
		name:    "stub-seismic",
		batches: [][]models.Event{{seismic("eq-123", 5.2)}},
	}
	p, c := newTestPoller([]feeds.Source{src}, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	waitFor(t, 2*time.Second, func() bool { return src.callCount() >= 3 })

	if c.Len() != 1 {
		t.Errorf("expected 1 cached alert after repeated cycles, got %d", c.Len())
	}

	cancel()
	p.Stop()
}

func TestPoller_SeverityEscalation(t *testing.T) {
	src := &stubSource{
		name: "stub-seismic",
		batches: [][]models.Event{
			{seismic("eq-123", 5.2)},
			{seismic("eq-123", 6.5)},
		},
	}
	p, c := newTestPoller([]feeds.Source{src}, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	waitFor(t, 2*time.Second, func() bool {
		snap := c.Snapshot()
		return len(snap) == 1 && snap[0].Severity == models.SeverityCritical
	})

	snap := c.Snapshot()
	if snap[0].DedupKey != "seismic:eq-123" {
		t.Errorf("escalation must keep the dedup key, got %s", snap[0].DedupKey)
	}

	cancel()
	p.Stop()
}

func TestPoller_FailedSourceSkipped(t *testing.T) {
	failing := &stubSource{
		name: "stub-broken",
		err:  &feeds.FetchError{Source: "stub-broken", Err: errors.New("connection refused")},
	}
	good := &stubSource{
		name:    "stub-seismic",
		batches: [][]models.Event{{seismic("eq-ok", 4.5)}},
	}
	p, c := newTestPoller([]feeds.Source{failing, good}, 20*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	// The failing source must not abort the batch or stop future cycles.
	waitFor(t, 2*time.Second, func() bool {
		return c.Len() == 1 && failing.callCount() >= 3
	})

	snap := c.Snapshot()
	if snap[0].DedupKey != "seismic:eq-ok" {
		t.Errorf("expected the healthy source's alert, got %s", snap[0].DedupKey)
	}

	cancel()
	p.Stop()
}

func TestPoller_BroadcastsInsertedAlerts(t *testing.T) {
	src := &stubSource{
		name:    "stub-seismic",
		batches: [][]models.Event{{seismic("eq-123", 5.2)}},
	}
	b := stream.NewBroadcaster()
	defer b.Close()

	_, ch := b.Subscribe()

	p, _ := newTestPoller([]feeds.Source{src}, time.Hour, b)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	select {
	case a := <-ch:
		if a.DedupKey != "seismic:eq-123" {
			t.Errorf("expected broadcast of seismic:eq-123, got %s", a.DedupKey)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for broadcast alert")
	}

	cancel()
	p.Stop()
}
