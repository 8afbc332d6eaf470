package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/booktrade/sellerd/internal/model"
)

// Performative is the semantic type of a protocol message.
type Performative string

const (
	CFP            Performative = "cfp"
	Propose        Performative = "propose"
	Refuse         Performative = "refuse"
	AcceptProposal Performative = "accept-proposal"
	Confirm        Performative = "confirm"
	Disconfirm     Performative = "disconfirm"
	NotUnderstood  Performative = "not-understood"
)

// Inbound performatives the seller serves. Everything else is a reply.
var inbound = map[Performative]bool{
	CFP:            true,
	AcceptProposal: true,
}

// IsInbound reports whether the seller accepts this performative from buyers.
func (p Performative) IsInbound() bool {
	return inbound[p]
}

// Envelope frames a single protocol message.
type Envelope struct {
	ID           uuid.UUID       `json:"id"`
	InReplyTo    uuid.UUID       `json:"in_reply_to,omitempty"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Performative Performative    `json:"performative"`
	Content      json.RawMessage `json:"content,omitempty"`
	SentAt       time.Time       `json:"sent_at"`
}

// NewEnvelope builds an envelope, marshaling content to JSON.
// A nil content leaves the envelope body empty.
func NewEnvelope(from, to string, p Performative, content any) (Envelope, error) {
	env := Envelope{
		ID:           uuid.New(),
		From:         from,
		To:           to,
		Performative: p,
		SentAt:       time.Now(),
	}
	if content != nil {
		data, err := json.Marshal(content)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s content: %w", p, err)
		}
		env.Content = data
	}
	return env, nil
}

// Reply builds a reply to this envelope, swapping sender and receiver and
// linking the conversation via InReplyTo.
func (e Envelope) Reply(p Performative, content any) (Envelope, error) {
	reply, err := NewEnvelope(e.To, e.From, p, content)
	if err != nil {
		return Envelope{}, err
	}
	reply.InReplyTo = e.ID
	return reply, nil
}

// Title decodes the content of a cfp message: the title of the item whose
// price the buyer is asking for.
func (e Envelope) Title() (string, error) {
	var title string
	if err := json.Unmarshal(e.Content, &title); err != nil {
		return "", fmt.Errorf("decode cfp content: %w", err)
	}
	if title == "" {
		return "", fmt.Errorf("decode cfp content: empty title")
	}
	return title, nil
}

// Proposal decodes the content of an accept-proposal message.
func (e Envelope) Proposal() (model.Proposal, error) {
	var p model.Proposal
	if err := json.Unmarshal(e.Content, &p); err != nil {
		return model.Proposal{}, fmt.Errorf("decode proposal content: %w", err)
	}
	if p.Title == "" {
		return model.Proposal{}, fmt.Errorf("decode proposal content: empty title")
	}
	return p, nil
}

// Price decodes the content of a propose message.
func (e Envelope) Price() (int, error) {
	var price int
	if err := json.Unmarshal(e.Content, &price); err != nil {
		return 0, fmt.Errorf("decode propose content: %w", err)
	}
	return price, nil
}
