package catalogue

import (
	"sync"
	"time"

	"github.com/booktrade/sellerd/internal/model"
)

// ChangeBufferSize is the capacity of the change feed channel.
const ChangeBufferSize = 256

// Ticket is the catalogue's handle on a listing's live price process.
type Ticket interface {
	// CurrentPrice returns the asking price as of the last decay tick.
	CurrentPrice() int

	// Stop cancels price decay because the item sold. It returns true
	// exactly once; false means the listing was already sold or has
	// expired, and the caller must not treat the item as won.
	Stop() bool
}

// Change is one catalogue mutation, published on the change feed.
type Change struct {
	Title      string
	Event      string // model.EventSold or model.EventExpired, or "listed"
	Price      int    // Sale price, or asking price at listing/expiry
	OccurredAt time.Time
}

// EventListed marks a listing entering the catalogue.
const EventListed = "listed"

// Entry pairs a listing's sale terms with its live price ticket.
type Entry struct {
	Listing model.Listing
	Ticket  Ticket
}

// Catalogue maps titles to active listings.
type Catalogue struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	changes chan Change
}

// New creates an empty catalogue.
func New() *Catalogue {
	return &Catalogue{
		entries: make(map[string]*Entry),
		changes: make(chan Change, ChangeBufferSize),
	}
}

// Put registers a listing under its title. It returns false if the title
// is already listed; the existing entry is left untouched.
func (c *Catalogue) Put(listing model.Listing, ticket Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[listing.Title]; ok {
		return false
	}
	c.entries[listing.Title] = &Entry{Listing: listing, Ticket: ticket}

	c.notifyChange(Change{
		Title:      listing.Title,
		Event:      EventListed,
		Price:      ticket.CurrentPrice(),
		OccurredAt: time.Now(),
	})
	return true
}

// CurrentPrice returns the live asking price for a title.
func (c *Catalogue) CurrentPrice(title string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[title]
	if !ok {
		return 0, false
	}
	return e.Ticket.CurrentPrice(), true
}

// Contains reports whether a title is currently listed.
func (c *Catalogue) Contains(title string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.entries[title]
	return ok
}

// Claim attempts to settle a sale: if the title is listed, the offered
// price covers the current asking price, and the price timer has not
// already terminated, the listing is removed and the sale committed.
// This is the commit point; it holds the write lock end to end.
func (c *Catalogue) Claim(title string, offered int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[title]
	if !ok {
		return false
	}
	if offered < e.Ticket.CurrentPrice() {
		return false
	}
	if !e.Ticket.Stop() {
		// Timer expired between lookup and commit.
		return false
	}
	delete(c.entries, title)

	c.notifyChange(Change{
		Title:      title,
		Event:      model.EventSold,
		Price:      offered,
		OccurredAt: time.Now(),
	})
	return true
}

// RemoveExpired retires a listing whose deadline passed. The caller (its
// price timer) must already hold the expired state; removal is skipped if
// the title was sold and removed in the meantime.
func (c *Catalogue) RemoveExpired(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[title]
	if !ok {
		return
	}
	delete(c.entries, title)

	c.notifyChange(Change{
		Title:      title,
		Event:      model.EventExpired,
		Price:      e.Ticket.CurrentPrice(),
		OccurredAt: time.Now(),
	})
}

// Snapshot returns a copy of all active entries with their current prices.
func (c *Catalogue) Snapshot() []ListingStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]ListingStatus, 0, len(c.entries))
	for _, e := range c.entries {
		result = append(result, ListingStatus{
			Title:        e.Listing.Title,
			CurrentPrice: e.Ticket.CurrentPrice(),
			FloorPrice:   e.Listing.FloorPrice,
			InitialPrice: e.Listing.InitialPrice,
			Deadline:     e.Listing.Deadline,
		})
	}
	return result
}

// ListingStatus is a point-in-time view of one active listing.
type ListingStatus struct {
	Title        string    `json:"title"`
	CurrentPrice int       `json:"current_price"`
	FloorPrice   int       `json:"floor_price"`
	InitialPrice int       `json:"initial_price"`
	Deadline     time.Time `json:"deadline"`
}

// Len returns the number of active listings.
func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Changes returns the catalogue change feed.
func (c *Catalogue) Changes() <-chan Change {
	return c.changes
}

// notifyChange sends a change to the feed without blocking (caller holds
// the write lock). When the feed is full the oldest change is dropped.
func (c *Catalogue) notifyChange(change Change) {
	select {
	case c.changes <- change:
	default:
		select {
		case <-c.changes:
			c.changes <- change
		default:
		}
	}
}
