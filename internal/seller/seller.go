package seller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/booktrade/sellerd/internal/catalogue"
	"github.com/booktrade/sellerd/internal/model"
	"github.com/booktrade/sellerd/internal/notify"
	"github.com/booktrade/sellerd/internal/pricing"
	"github.com/booktrade/sellerd/internal/protocol"
)

// What to tell the user when an item has been sold.
const soldMsg = "item %s has been sold for %d"

// MessageBus is the transport surface the seller consumes.
type MessageBus interface {
	Receive(ctx context.Context, p protocol.Performative) (protocol.Envelope, error)
	Send(env protocol.Envelope) error
}

// Config holds seller configuration.
type Config struct {
	ID      string         // This seller's protocol address
	Pricing pricing.Config // Applied to every listing's price timer
}

// Seller runs the negotiation engine for one catalogue.
type Seller struct {
	cfg      Config
	cat      *catalogue.Catalogue
	bus      MessageBus
	notifier notify.Notifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	timers map[string]*pricing.Timer
}

// New creates a seller.
func New(cfg Config, cat *catalogue.Catalogue, bus MessageBus, notifier notify.Notifier, logger *slog.Logger) *Seller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seller{
		cfg:      cfg,
		cat:      cat,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		timers:   make(map[string]*pricing.Timer),
	}
}

// Start launches the inquiry and acceptance servers.
func (s *Seller) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.serve(protocol.CFP, s.handleInquiry)
	}()
	go func() {
		defer s.wg.Done()
		s.serve(protocol.AcceptProposal, s.handleAcceptance)
	}()

	s.logger.Info("seller started", "id", s.cfg.ID)
	return nil
}

// Stop gracefully shuts down the servers and all price timers.
func (s *Seller) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.mu.Lock()
		for _, t := range s.timers {
			t.Wait()
		}
		s.mu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("seller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PutForSale creates a listing and starts its price timer. The deadline
// is measured against the current time; the initial asking price holds
// until the first decay tick.
func (s *Seller) PutForSale(title string, initialPrice, floorPrice int, deadline time.Time) error {
	if s.ctx == nil {
		return fmt.Errorf("seller is not started")
	}

	listing := model.Listing{
		Title:        title,
		InitialPrice: initialPrice,
		FloorPrice:   floorPrice,
		StartTime:    time.Now(),
		Deadline:     deadline,
	}

	timer := pricing.New(s.cfg.Pricing, listing, s.cat, s.notifier, s.logger)
	if err := timer.Start(s.ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.timers[title] = timer
	s.mu.Unlock()

	return nil
}

// serve pulls messages with one performative off the bus until shutdown.
func (s *Seller) serve(p protocol.Performative, handle func(protocol.Envelope) (protocol.Envelope, error)) {
	for {
		env, err := s.bus.Receive(s.ctx, p)
		if err != nil {
			return
		}

		reply, err := handle(env)
		if err != nil {
			s.logger.Error("failed to build reply",
				"performative", p,
				"from", env.From,
				"err", err,
			)
			continue
		}

		if err := s.bus.Send(reply); err != nil {
			s.logger.Warn("failed to send reply",
				"performative", reply.Performative,
				"to", reply.To,
				"err", err,
			)
		}
	}
}

// handleInquiry answers a cfp: propose the current price if the title is
// listed, refuse otherwise. Read-only.
func (s *Seller) handleInquiry(env protocol.Envelope) (protocol.Envelope, error) {
	title, err := env.Title()
	if err != nil {
		s.logger.Debug("unreadable cfp", "from", env.From, "err", err)
		return env.Reply(protocol.Refuse, nil)
	}

	price, ok := s.cat.CurrentPrice(title)
	if !ok {
		return env.Reply(protocol.Refuse, nil)
	}

	s.logger.Debug("price inquiry",
		"title", title,
		"price", price,
		"from", env.From,
	)
	return env.Reply(protocol.Propose, price)
}

// handleAcceptance settles a purchase acceptance: confirm and commit the
// sale when the offer covers the live asking price, disconfirm when the
// title is gone or the offer is short, not-understood when the payload
// does not decode.
func (s *Seller) handleAcceptance(env protocol.Envelope) (protocol.Envelope, error) {
	proposal, err := env.Proposal()
	if err != nil {
		s.logger.Debug("unreadable proposal", "from", env.From, "err", err)
		return env.Reply(protocol.NotUnderstood, nil)
	}

	if !s.cat.Claim(proposal.Title, proposal.Price) {
		return env.Reply(protocol.Disconfirm, nil)
	}

	notify.Notifyf(s.notifier, soldMsg, proposal.Title, proposal.Price)
	s.logger.Info("listing sold",
		"title", proposal.Title,
		"price", proposal.Price,
		"buyer", env.From,
	)
	return env.Reply(protocol.Confirm, nil)
}
