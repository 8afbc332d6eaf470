// Package seller implements the negotiation engine: the two protocol
// servers answering price inquiries and settling purchase acceptances,
// and the PutForSale operation creating listings.
//
// Each server is a loop that suspends on the bus until a message with its
// performative arrives, handles it, and replies. Every inbound message
// gets exactly one reply; protocol failures (unknown title, stale offer,
// undecodable payload) are replies, never errors.
package seller
