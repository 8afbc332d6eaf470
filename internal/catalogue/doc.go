// Package catalogue implements the seller's catalogue of active listings.
//
// The catalogue is the single source of truth for "is this item still for
// sale". A title is present exactly while its price timer is running:
// timers insert on start and remove on expiry, the acceptance path removes
// on sale. Readers always observe the live asking price through the
// listing's Ticket, never a stale copy.
//
// The sale commit runs entirely inside Claim, under the write lock: price
// check, timer cancellation and removal are a single atomic step, so two
// competing acceptances for one title resolve to exactly one winner.
package catalogue
