// Package ledger persists sale and expiry events to Postgres so that the
// history of a seller's listings survives the in-memory catalogue.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/booktrade/sellerd/internal/catalogue"
	"github.com/booktrade/sellerd/internal/model"
)

// Config holds ledger writer configuration.
type Config struct {
	BatchSize     int           // Rows per insert batch (default: 500)
	FlushInterval time.Duration // Max time a row waits in the batch (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// Metrics counts ledger writer activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// Ledger consumes catalogue changes and batch-inserts terminal events.
type Ledger struct {
	cfg    Config
	db     *pgxpool.Pool
	input  <-chan catalogue.Change
	logger *slog.Logger

	batch       []model.SaleEvent
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// New creates a ledger writer consuming from input.
func New(cfg Config, db *pgxpool.Pool, input <-chan catalogue.Change, logger *slog.Logger) *Ledger {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		cfg:    cfg,
		db:     db,
		input:  input,
		logger: logger,
		batch:  make([]model.SaleEvent, 0, cfg.BatchSize),
	}
}

// EnsureSchema creates the sale_events table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sale_events (
			id          UUID PRIMARY KEY,
			title       TEXT NOT NULL,
			event       TEXT NOT NULL,
			price       INTEGER NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create sale_events table: %w", err)
	}
	return nil
}

// Start begins consuming changes and writing to the database.
func (l *Ledger) Start(ctx context.Context) error {
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.flushTicker = time.NewTicker(l.cfg.FlushInterval)

	l.wg.Add(1)
	go l.consumeLoop()

	l.wg.Add(1)
	go l.flushLoop()

	l.logger.Info("sale ledger started",
		"batch_size", l.cfg.BatchSize,
		"flush_interval", l.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing the remaining batch.
func (l *Ledger) Stop(ctx context.Context) error {
	if l.cancel != nil {
		l.cancel()
	}
	if l.flushTicker != nil {
		l.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("sale ledger stopped")
	case <-ctx.Done():
		l.logger.Warn("sale ledger stop timed out")
	}

	l.flush()
	return nil
}

// Stats returns current metrics.
func (l *Ledger) Stats() Metrics {
	l.batchMu.Lock()
	defer l.batchMu.Unlock()
	return l.metrics
}

// consumeLoop reads catalogue changes and accumulates ledger rows.
func (l *Ledger) consumeLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case change, ok := <-l.input:
			if !ok {
				return
			}
			if !recordable(change) {
				continue
			}
			l.add(toEvent(change))
		}
	}
}

// flushLoop periodically flushes the batch.
func (l *Ledger) flushLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.flushTicker.C:
			l.flush()
		}
	}
}

// recordable reports whether a change belongs in the ledger. Only
// terminal outcomes are kept; listings entering the catalogue are not.
func recordable(change catalogue.Change) bool {
	return change.Event == model.EventSold || change.Event == model.EventExpired
}

// toEvent converts a catalogue change to a ledger row.
func toEvent(change catalogue.Change) model.SaleEvent {
	return model.SaleEvent{
		ID:         uuid.New(),
		Title:      change.Title,
		Event:      change.Event,
		Price:      change.Price,
		OccurredAt: change.OccurredAt,
	}
}

// add appends a row, flushing when the batch is full.
func (l *Ledger) add(ev model.SaleEvent) {
	l.batchMu.Lock()
	l.batch = append(l.batch, ev)
	shouldFlush := len(l.batch) >= l.cfg.BatchSize
	l.batchMu.Unlock()

	if shouldFlush {
		l.flush()
	}
}

// flush writes the current batch to the database.
func (l *Ledger) flush() {
	l.batchMu.Lock()
	if len(l.batch) == 0 {
		l.batchMu.Unlock()
		return
	}
	batch := l.batch
	l.batch = make([]model.SaleEvent, 0, l.cfg.BatchSize)
	l.batchMu.Unlock()

	start := time.Now()

	if err := l.batchInsert(batch); err != nil {
		l.logger.Error("ledger batch insert failed", "error", err, "count", len(batch))
		l.batchMu.Lock()
		l.metrics.Errors++
		l.batchMu.Unlock()
		return
	}

	l.batchMu.Lock()
	l.metrics.Inserts += int64(len(batch))
	l.metrics.Flushes++
	l.batchMu.Unlock()

	l.logger.Debug("flushed sale events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert writes rows in a single pgx batch.
func (l *Ledger) batchInsert(rows []model.SaleEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(
			`INSERT INTO sale_events (id, title, event, price, occurred_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Title, r.Event, r.Price, r.OccurredAt,
		)
	}

	results := l.db.SendBatch(ctx, b)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
