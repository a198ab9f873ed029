// Package poller drives the alert pipeline: on a fixed interval it fetches
// every registered feed, runs the generator over the combined batch, and
// applies the results to the cache in a single write phase. Cycles never
// overlap; the poll loop is the cache's only producer.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safeahead/hazard-alerts/internal/cache"
	"github.com/safeahead/hazard-alerts/internal/feeds"
	"github.com/safeahead/hazard-alerts/internal/generator"
	"github.com/safeahead/hazard-alerts/internal/models"
	"github.com/safeahead/hazard-alerts/internal/observability"
	"github.com/safeahead/hazard-alerts/internal/stream"
)

type Poller struct {
	sources      []feeds.Source
	gen          *generator.Generator
	cache        *cache.AlertCache
	broadcaster  *stream.Broadcaster
	metrics      *observability.Metrics
	interval     time.Duration
	fetchTimeout time.Duration
	lastCycle    atomic.Int64 // unix nanos of the last completed cycle
	wg           sync.WaitGroup
}

func New(
	sources []feeds.Source,
	gen *generator.Generator,
	c *cache.AlertCache,
	broadcaster *stream.Broadcaster,
	metrics *observability.Metrics,
	interval, fetchTimeout time.Duration,
) *Poller {
	return &Poller{
		sources:      sources,
		gen:          gen,
		cache:        c,
		broadcaster:  broadcaster,
		metrics:      metrics,
		interval:     interval,
		fetchTimeout: fetchTimeout,
	}
}

// Start launches the poll loop. Cancelling ctx stops scheduling future
// cycles; an in-flight cycle is allowed to finish and Stop waits for it.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

func (p *Poller) Stop() {
	p.wg.Wait()
	slog.Info("poller stopped")
}

// LastCycle returns when the most recent cycle completed, or the zero time
// if none has.
func (p *Poller) LastCycle() time.Time {
	ns := p.lastCycle.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()
	slog.Info("starting poller", "sources", len(p.sources), "interval", p.interval)

	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial cycle before the first tick
	p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

// runCycle executes one fetch-generate-upsert-evict pass. A source failing
// is logged and skipped for this cycle only; the interval timer is never
// reset by failures and the next cycle is the retry.
func (p *Poller) runCycle(ctx context.Context) {
	start := time.Now()
	events := p.fetchAll(ctx)
	if ctx.Err() != nil {
		return
	}

	alerts := p.gen.GenerateBatch(events)
	p.metrics.AlertsGenerated.Add(float64(len(alerts)))

	for _, a := range alerts {
		result := p.cache.Upsert(a)
		p.metrics.AlertsUpserted.WithLabelValues(upsertLabel(result)).Inc()
		if result != cache.Refreshed && p.broadcaster != nil {
			p.broadcaster.Publish(a)
		}
	}

	evicted := p.cache.EvictExpired()
	p.metrics.AlertsEvicted.Add(float64(evicted))
	p.metrics.CacheSize.Set(float64(p.cache.Len()))
	p.metrics.PollCycles.Inc()
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	p.lastCycle.Store(time.Now().UnixNano())

	slog.Debug("poll cycle complete",
		"events", len(events),
		"alerts", len(alerts),
		"evicted", evicted,
		"cache_size", p.cache.Len(),
	)
}

// fetchAll invokes every source concurrently, each under its own timeout,
// and merges the successful results. Order between sources does not matter;
// the merge happens before any write to the cache.
func (p *Poller) fetchAll(ctx context.Context) []models.Event {
	var (
		mu     sync.Mutex
		events []models.Event
		wg     sync.WaitGroup
	)

	for _, src := range p.sources {
		wg.Add(1)
		go func(src feeds.Source) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
			defer cancel()

			batch, err := src.Fetch(fetchCtx)
			if err != nil {
				slog.Error("feed fetch failed", "source", src.Name(), "error", err)
				p.metrics.FetchErrors.WithLabelValues(src.Name()).Inc()
				return
			}
			p.metrics.EventsIngested.WithLabelValues(src.Name()).Add(float64(len(batch)))

			mu.Lock()
			events = append(events, batch...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return events
}

func upsertLabel(r cache.UpsertResult) string {
	switch r {
	case cache.Inserted:
		return "inserted"
	case cache.Updated:
		return "updated"
	default:
		return "refreshed"
	}
}
