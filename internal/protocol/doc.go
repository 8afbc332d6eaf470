// Package protocol defines the message-level contract between buyers and
// the seller: the closed set of performatives and the envelope that frames
// every message.
//
// The negotiation is a two-round exchange:
//
//	buyer: cfp("Dune")            seller: propose(100) | refuse
//	buyer: accept-proposal({...}) seller: confirm | disconfirm | not-understood
//
// Envelope content is JSON: a bare string for cfp, an integer for propose,
// a Proposal object for accept-proposal. Terminal replies carry no content.
package protocol
