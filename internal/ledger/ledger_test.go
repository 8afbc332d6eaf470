package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/booktrade/sellerd/internal/catalogue"
	"github.com/booktrade/sellerd/internal/model"
)

func TestRecordable(t *testing.T) {
	tests := []struct {
		event string
		want  bool
	}{
		{model.EventSold, true},
		{model.EventExpired, true},
		{catalogue.EventListed, false},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			got := recordable(catalogue.Change{Event: tt.event})
			if got != tt.want {
				t.Errorf("recordable(%q) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestToEvent(t *testing.T) {
	now := time.Now()
	change := catalogue.Change{
		Title:      "Dune",
		Event:      model.EventSold,
		Price:      85,
		OccurredAt: now,
	}

	ev := toEvent(change)
	if ev.Title != "Dune" {
		t.Errorf("Title = %q, want %q", ev.Title, "Dune")
	}
	if ev.Event != model.EventSold {
		t.Errorf("Event = %q, want %q", ev.Event, model.EventSold)
	}
	if ev.Price != 85 {
		t.Errorf("Price = %d, want 85", ev.Price)
	}
	if !ev.OccurredAt.Equal(now) {
		t.Errorf("OccurredAt = %v, want %v", ev.OccurredAt, now)
	}
	if ev.ID == uuid.Nil {
		t.Error("ID should be generated")
	}
}

func TestAdd_BatchAccumulates(t *testing.T) {
	l := New(Config{BatchSize: 10, FlushInterval: time.Hour}, nil, nil, nil)

	l.add(toEvent(catalogue.Change{Title: "Dune", Event: model.EventSold, Price: 85, OccurredAt: time.Now()}))
	l.add(toEvent(catalogue.Change{Title: "Foundation", Event: model.EventExpired, Price: 40, OccurredAt: time.Now()}))

	l.batchMu.Lock()
	defer l.batchMu.Unlock()
	if len(l.batch) != 2 {
		t.Errorf("len(batch) = %d, want 2", len(l.batch))
	}
}
