// hazard-client pulls the current alert set from the backend when it can
// and reads from its local cache when it cannot. It always prints from the
// local store, so the last known alerts stay available with no network.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/safeahead/hazard-alerts/internal/client"
	"github.com/safeahead/hazard-alerts/internal/config"
	"github.com/safeahead/hazard-alerts/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
		logging.Fatalf("Failed to create cache directory: %v", err)
	}

	store, err := client.OpenStore(cfg.CachePath)
	if err != nil {
		logging.Fatalf("Failed to open local store: %v", err)
	}
	defer store.Close()

	cmd := "alerts"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout+5*time.Second)
	defer cancel()

	switch cmd {
	case "alerts":
		runAlerts(ctx, cfg, store)
	case "guidance":
		runGuidance(ctx, cfg, store)
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [alerts|guidance]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
}

func runAlerts(ctx context.Context, cfg *config.ClientConfig, store *client.Store) {
	syncer := client.NewSyncer(cfg.BackendURL, cfg.SyncTimeout, store)
	result, err := syncer.Sync(ctx)

	switch {
	case err == nil:
		fmt.Println("Active alerts (live):")
	case errors.Is(err, client.ErrSyncFailed):
		if result.LastSync.IsZero() {
			fmt.Println("Offline - no cached alerts available yet.")
			return
		}
		fmt.Printf("Offline - showing cached alerts (last sync %s)\n", result.LastSync.Local().Format(time.RFC822))
	default:
		logging.Fatalf("Sync error: %v", err)
	}

	alerts, err := store.ListAlerts(ctx)
	if err != nil {
		logging.Fatalf("Failed to read local store: %v", err)
	}
	if len(alerts) == 0 {
		fmt.Println("No active alerts.")
		return
	}
	for _, a := range alerts {
		fmt.Printf("- [%s/%s] %s @ %s\n", a.Type, a.Severity, a.Message, a.GeneratedAt.Local().Format(time.RFC822))
	}
}

func runGuidance(ctx context.Context, cfg *config.ClientConfig, store *client.Store) {
	// Best effort refresh; guidance reads work fully offline.
	syncer := client.NewSyncer(cfg.BackendURL, cfg.SyncTimeout, store)
	if _, err := syncer.Sync(ctx); err != nil && !errors.Is(err, client.ErrSyncFailed) {
		logging.Fatalf("Sync error: %v", err)
	}

	topics, err := store.ListGuidance(ctx)
	if err != nil {
		logging.Fatalf("Failed to read local store: %v", err)
	}
	if len(topics) == 0 {
		fmt.Println("No guidance cached yet - run while online first.")
		return
	}
	for _, t := range topics {
		fmt.Printf("== %s ==\n%s\n\n", t.Topic, t.Content)
	}
}
