// Package snapshot backs up the SQLite database to R2 object storage.
// It uploads zstd-compressed snapshots on an interval and restores the
// latest snapshot on startup when no local database exists.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ckeepapp/ckeep-whatsapp-go/internal/r2client"
	"github.com/ckeepapp/ckeep-whatsapp-go/internal/storage"
)

// ErrNotFound indicates no snapshot exists in R2.
var ErrNotFound = errors.New("snapshot: not found")

// MetricsRecorder counts snapshot outcomes. *metrics.Metrics implements it.
type MetricsRecorder interface {
	RecordSnapshot(status string, duration float64)
}

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey string        // R2 object key for the snapshot (e.g., "snapshots/coupons.db.zst")
	Interval    time.Duration // How often to upload a new snapshot
	TempDir     string        // Directory for temporary files
}

// Manager handles periodic database backup to R2.
type Manager struct {
	client  *r2client.Client
	db      *storage.DB
	config  Config
	logger  *slog.Logger
	metrics MetricsRecorder
}

// New creates a new snapshot manager. metrics may be nil.
func New(client *r2client.Client, db *storage.DB, cfg Config, logger *slog.Logger, metrics MetricsRecorder) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		client:  client,
		db:      db,
		config:  cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// Upload creates a consistent snapshot of the database, compresses it and
// uploads it to R2. Returns the ETag of the uploaded object.
func (m *Manager) Upload(ctx context.Context) (string, error) {
	start := time.Now()
	etag, err := m.upload(ctx)
	if m.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		m.metrics.RecordSnapshot(status, time.Since(start).Seconds())
	}
	return etag, err
}

func (m *Manager) upload(ctx context.Context) (string, error) {
	snapshotPath := filepath.Join(m.config.TempDir, fmt.Sprintf("snapshot_%d.db", time.Now().UnixNano()))
	if err := m.db.CreateSnapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(snapshotPath)

	compressedPath := snapshotPath + ".zst"
	if err := r2client.CompressFile(snapshotPath, compressedPath); err != nil {
		return "", fmt.Errorf("compress database: %w", err)
	}
	defer os.Remove(compressedPath)

	compressedFile, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed file: %w", err)
	}
	defer compressedFile.Close()

	etag, err := m.client.Upload(ctx, m.config.SnapshotKey, compressedFile, "application/zstd")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	return etag, nil
}

// Restore downloads the latest snapshot from R2 and decompresses it to
// dbPath. Returns ErrNotFound when no snapshot exists.
func Restore(ctx context.Context, client *r2client.Client, snapshotKey, dbPath string) error {
	body, _, err := client.Download(ctx, snapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := r2client.DecompressStream(body, dbPath); err != nil {
		os.Remove(dbPath)
		return fmt.Errorf("decompress snapshot: %w", err)
	}

	return nil
}

// RestoreIfMissing restores the latest snapshot only when no database file
// exists at dbPath. Returns true when a snapshot was restored.
func RestoreIfMissing(ctx context.Context, client *r2client.Client, snapshotKey, dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat database: %w", err)
	}

	if err := Restore(ctx, client, snapshotKey, dbPath); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Run uploads snapshots on the configured interval until ctx is canceled.
// Failures are logged and retried on the next tick.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.logger.Info("snapshot loop started",
		"interval", m.config.Interval.String(),
		"snapshot_key", m.config.SnapshotKey)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("snapshot loop stopped")
			return
		case <-ticker.C:
			etag, err := m.Upload(ctx)
			if err != nil {
				m.logger.Error("snapshot upload failed", "error", err.Error())
				continue
			}
			m.logger.Info("snapshot uploaded", "etag", etag)
		}
	}
}
