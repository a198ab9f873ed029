package client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/safeahead/hazard-alerts/internal/guidance"
	"github.com/safeahead/hazard-alerts/internal/models"
)

// Store is the client-side offline cache: the last successfully synced
// alert set plus guidance, keyed the same way the backend keys them. It is
// only ever written by a fully successful sync, so whatever it holds is a
// consistent snapshot.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening local store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging local store: %w", err)
	}

	s := &Store{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating local store: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			dedup_key TEXT PRIMARY KEY,
			severity TEXT NOT NULL,
			type TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			message TEXT,
			generated_at TEXT NOT NULL,
			expires_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS guidance (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			content TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sync_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_generated_at ON alerts(generated_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutAlert upserts one alert by dedup key.
func (s *Store) PutAlert(ctx context.Context, a models.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (dedup_key, severity, type, latitude, longitude, message, generated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dedup_key) DO UPDATE SET
			severity=excluded.severity,
			type=excluded.type,
			latitude=excluded.latitude,
			longitude=excluded.longitude,
			message=excluded.message,
			generated_at=excluded.generated_at,
			expires_at=excluded.expires_at
	`,
		a.DedupKey, string(a.Severity), string(a.Type), a.Latitude, a.Longitude, a.Message,
		a.GeneratedAt.UTC().Format(time.RFC3339Nano), a.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// GetAlert returns the alert for the key, or nil when absent.
func (s *Store) GetAlert(ctx context.Context, dedupKey string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT dedup_key, severity, type, latitude, longitude, message, generated_at, expires_at
		FROM alerts WHERE dedup_key = ?
	`, dedupKey)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns every cached alert, newest first.
func (s *Store) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dedup_key, severity, type, latitude, longitude, message, generated_at, expires_at
		FROM alerts ORDER BY generated_at DESC, dedup_key ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (models.Alert, error) {
	var (
		a                      models.Alert
		severity, typ          string
		generatedAt, expiresAt string
	)
	if err := row.Scan(&a.DedupKey, &severity, &typ, &a.Latitude, &a.Longitude, &a.Message, &generatedAt, &expiresAt); err != nil {
		return models.Alert{}, err
	}
	a.Severity = models.Severity(severity)
	a.Type = models.AlertType(typ)

	var err error
	if a.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
		return models.Alert{}, fmt.Errorf("invalid generated_at for %s: %w", a.DedupKey, err)
	}
	if a.ExpiresAt, err = time.Parse(time.RFC3339Nano, expiresAt); err != nil {
		return models.Alert{}, fmt.Errorf("invalid expires_at for %s: %w", a.DedupKey, err)
	}
	return a, nil
}

func (s *Store) PutGuidance(ctx context.Context, t guidance.Topic) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guidance (id, topic, content) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET topic=excluded.topic, content=excluded.content
	`, t.ID, t.Topic, t.Content)
	return err
}

func (s *Store) ListGuidance(ctx context.Context) ([]guidance.Topic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, topic, content FROM guidance ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []guidance.Topic
	for rows.Next() {
		var t guidance.Topic
		if err := rows.Scan(&t.ID, &t.Topic, &t.Content); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

const lastSyncKey = "last_sync"

func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value
	`, lastSyncKey, t.UTC().Format(time.RFC3339Nano))
	return err
}

// LastSync returns the time of the last successful sync, or the zero time
// if no sync has ever succeeded.
func (s *Store) LastSync(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?`, lastSyncKey).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, value)
}
