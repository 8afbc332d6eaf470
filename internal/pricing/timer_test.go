package pricing

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/booktrade/sellerd/internal/catalogue"
	"github.com/booktrade/sellerd/internal/model"
	"github.com/booktrade/sellerd/internal/notify"
)

func fixedListing(start time.Time) model.Listing {
	return model.Listing{
		Title:        "Dune",
		InitialPrice: 100,
		FloorPrice:   40,
		StartTime:    start,
		Deadline:     start.Add(100 * time.Second),
	}
}

func countingNotifier(count *atomic.Int32) notify.Notifier {
	return notify.Func(func(string) { count.Add(1) })
}

func TestPriceAt_Proportional(t *testing.T) {
	start := time.Now()
	tm := New(Config{}, fixedListing(start), catalogue.New(), notify.Func(func(string) {}), nil)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"at start", 0, 100},
		{"quarter", 25 * time.Second, 85},
		{"midpoint", 50 * time.Second, 70},
		{"at deadline", 100 * time.Second, 40},
		{"past deadline", 200 * time.Second, 40},
		{"before start", -5 * time.Second, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tm.priceAt(start.Add(tt.elapsed))
			if got != tt.want {
				t.Errorf("priceAt(+%v) = %d, want %d", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestPriceAt_Legacy(t *testing.T) {
	start := time.Now()
	tm := New(Config{LegacyDecay: true}, fixedListing(start), catalogue.New(), notify.Func(func(string) {}), nil)

	// The truncating formula keeps the price at its initial value for the
	// whole listing life.
	if got := tm.priceAt(start.Add(50 * time.Second)); got != 100 {
		t.Errorf("priceAt(midpoint) = %d, want 100", got)
	}
	if got := tm.priceAt(start.Add(99 * time.Second)); got != 100 {
		t.Errorf("priceAt(just before deadline) = %d, want 100", got)
	}
	if got := tm.priceAt(start.Add(100 * time.Second)); got != 40 {
		t.Errorf("priceAt(at deadline) = %d, want 40", got)
	}
}

func TestRun_ExpiresAtDeadline(t *testing.T) {
	now := time.Now()
	listing := model.Listing{
		Title:        "Dune",
		InitialPrice: 100,
		FloorPrice:   40,
		StartTime:    now,
		Deadline:     now.Add(30 * time.Millisecond),
	}

	var notifications atomic.Int32
	cat := catalogue.New()
	tm := New(Config{TickInterval: 5 * time.Millisecond}, listing, cat, countingNotifier(&notifications), nil)

	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	tm.Wait()

	if cat.Contains("Dune") {
		t.Error("listing should be removed after expiry")
	}
	if !tm.Done() {
		t.Error("timer should be terminal after expiry")
	}
	if n := notifications.Load(); n != 1 {
		t.Errorf("notifications = %d, want exactly 1", n)
	}

	// An expired timer cannot be stopped for a sale.
	if tm.Stop() {
		t.Error("Stop() after expiry should report false")
	}
}

func TestRun_PriceBoundedAndMonotonic(t *testing.T) {
	now := time.Now()
	listing := model.Listing{
		Title:        "Dune",
		InitialPrice: 100,
		FloorPrice:   40,
		StartTime:    now,
		Deadline:     now.Add(50 * time.Millisecond),
	}

	cat := catalogue.New()
	tm := New(Config{TickInterval: 2 * time.Millisecond}, listing, cat, notify.Func(func(string) {}), nil)

	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	prev := listing.InitialPrice
	for !tm.Done() {
		price := tm.CurrentPrice()
		if price < listing.FloorPrice || price > listing.InitialPrice {
			t.Fatalf("price %d outside [%d, %d]", price, listing.FloorPrice, listing.InitialPrice)
		}
		if price > prev {
			t.Fatalf("price rose from %d to %d", prev, price)
		}
		prev = price
		time.Sleep(3 * time.Millisecond)
	}
	tm.Wait()
}

func TestStop_Idempotent(t *testing.T) {
	now := time.Now()
	listing := model.Listing{
		Title:        "Dune",
		InitialPrice: 100,
		FloorPrice:   40,
		StartTime:    now,
		Deadline:     now.Add(30 * time.Millisecond),
	}

	var notifications atomic.Int32
	cat := catalogue.New()
	tm := New(Config{TickInterval: 5 * time.Millisecond}, listing, cat, countingNotifier(&notifications), nil)

	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !tm.Stop() {
		t.Error("first Stop() should report the transition")
	}
	if tm.Stop() {
		t.Error("second Stop() should be a no-op")
	}
	tm.Wait()

	// Even after the deadline passes, a stopped timer stays silent.
	time.Sleep(50 * time.Millisecond)
	if n := notifications.Load(); n != 0 {
		t.Errorf("notifications = %d, want 0 after Stop", n)
	}
}

func TestClaim_SuppressesExpiry(t *testing.T) {
	now := time.Now()
	listing := model.Listing{
		Title:        "Dune",
		InitialPrice: 100,
		FloorPrice:   40,
		StartTime:    now,
		Deadline:     now.Add(30 * time.Millisecond),
	}

	var notifications atomic.Int32
	cat := catalogue.New()
	tm := New(Config{TickInterval: 5 * time.Millisecond}, listing, cat, countingNotifier(&notifications), nil)

	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if !cat.Claim("Dune", 100) {
		t.Fatal("Claim should succeed")
	}
	tm.Wait()

	time.Sleep(50 * time.Millisecond)
	if n := notifications.Load(); n != 0 {
		t.Errorf("notifications = %d, want 0 after sale", n)
	}
	if cat.Contains("Dune") {
		t.Error("listing should be removed after sale")
	}
}

func TestStart_DuplicateTitle(t *testing.T) {
	now := time.Now()
	cat := catalogue.New()
	n := notify.Func(func(string) {})

	first := New(Config{TickInterval: time.Hour}, fixedListing(now), cat, n, nil)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	second := New(Config{TickInterval: time.Hour}, fixedListing(now), cat, n, nil)
	if err := second.Start(context.Background()); err == nil {
		t.Error("Start with duplicate title should fail")
	}
}

func TestStart_InvalidListing(t *testing.T) {
	now := time.Now()
	listing := model.Listing{
		Title:        "Dune",
		InitialPrice: 40,
		FloorPrice:   100, // floor above initial
		StartTime:    now,
		Deadline:     now.Add(time.Hour),
	}

	tm := New(Config{}, listing, catalogue.New(), notify.Func(func(string) {}), nil)
	if err := tm.Start(context.Background()); err == nil {
		t.Error("Start with invalid listing should fail")
	}
}
