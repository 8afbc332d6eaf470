package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/booktrade/sellerd/internal/catalogue"
	"github.com/booktrade/sellerd/internal/model"
	"github.com/booktrade/sellerd/internal/notify"
)

// What to tell the user when an item cannot be sold by its deadline.
const expiryMsg = "cannot sell item %s"

// Config holds price timer configuration.
type Config struct {
	TickInterval time.Duration // How often to lower the price (default: 1m)
	LegacyDecay  bool          // Reproduce the historical truncating formula
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Minute,
	}
}

// Timer states. Sold and expired are terminal.
const (
	stateRunning int32 = iota
	stateSold
	stateExpired
)

// Timer drives the decaying price of one listing.
type Timer struct {
	cfg      Config
	listing  model.Listing
	cat      *catalogue.Catalogue
	notifier notify.Notifier
	logger   *slog.Logger

	price atomic.Int64
	state atomic.Int32

	priceRange int
	timeRange  time.Duration

	// now is replaceable for tests.
	now func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a price timer for a listing.
func New(cfg Config, listing model.Listing, cat *catalogue.Catalogue, notifier notify.Notifier, logger *slog.Logger) *Timer {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultConfig().TickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &Timer{
		cfg:        cfg,
		listing:    listing,
		cat:        cat,
		notifier:   notifier,
		logger:     logger,
		priceRange: listing.InitialPrice - listing.FloorPrice,
		timeRange:  listing.Deadline.Sub(listing.StartTime),
		now:        time.Now,
	}
	t.price.Store(int64(listing.InitialPrice))
	return t
}

// Start registers the listing into the catalogue and begins decaying its
// price. It fails if the title is already listed.
func (t *Timer) Start(ctx context.Context) error {
	if err := t.listing.Validate(); err != nil {
		return err
	}
	if !t.cat.Put(t.listing, t) {
		return fmt.Errorf("title %q is already listed", t.listing.Title)
	}

	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go t.run(ctx)

	t.logger.Info("price timer started",
		"title", t.listing.Title,
		"initial_price", t.listing.InitialPrice,
		"floor_price", t.listing.FloorPrice,
		"deadline", t.listing.Deadline,
	)
	return nil
}

// run is the decay loop.
func (t *Timer) run(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.tick() {
				return
			}
		}
	}
}

// tick advances the price or expires the listing. It returns true when
// the timer reached a terminal state.
func (t *Timer) tick() bool {
	now := t.now()

	if now.After(t.listing.Deadline) {
		// The first terminal transition wins: a sale committed between
		// the deadline passing and this check suppresses the expiry.
		if !t.state.CompareAndSwap(stateRunning, stateExpired) {
			return true
		}
		t.cat.RemoveExpired(t.listing.Title)
		notify.Notifyf(t.notifier, expiryMsg, t.listing.Title)
		t.logger.Info("listing expired unsold",
			"title", t.listing.Title,
			"last_price", t.CurrentPrice(),
		)
		return true
	}

	t.price.Store(int64(t.priceAt(now)))
	return t.state.Load() != stateRunning
}

// priceAt computes the asking price at a point in time, clamped to the
// [floor, initial] range.
func (t *Timer) priceAt(now time.Time) int {
	elapsed := now.Sub(t.listing.StartTime)
	if elapsed <= 0 || t.timeRange <= 0 {
		return t.listing.InitialPrice
	}

	var price int
	if t.cfg.LegacyDecay {
		// Integer division of the elapsed/total ratio: zero until the
		// deadline, so the price never moves before expiry fires.
		price = t.listing.InitialPrice - t.priceRange*int(elapsed/t.timeRange)
	} else {
		fraction := float64(elapsed) / float64(t.timeRange)
		price = t.listing.InitialPrice - int(math.Round(float64(t.priceRange)*fraction))
	}

	if price < t.listing.FloorPrice {
		return t.listing.FloorPrice
	}
	if price > t.listing.InitialPrice {
		return t.listing.InitialPrice
	}
	return price
}

// CurrentPrice returns the asking price as of the last tick.
func (t *Timer) CurrentPrice() int {
	return int(t.price.Load())
}

// Stop cancels price decay because the item sold. It is idempotent and
// returns true only for the call that performed the transition; an
// already sold or expired timer is left untouched and never emits its
// expiry notification.
func (t *Timer) Stop() bool {
	if !t.state.CompareAndSwap(stateRunning, stateSold) {
		return false
	}
	if t.cancel != nil {
		t.cancel()
	}
	return true
}

// Wait blocks until the decay loop has exited.
func (t *Timer) Wait() {
	t.wg.Wait()
}

// Done reports whether the timer reached a terminal state.
func (t *Timer) Done() bool {
	return t.state.Load() != stateRunning
}

var _ catalogue.Ticket = (*Timer)(nil)
