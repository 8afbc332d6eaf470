// Package pricing implements the per-listing price decay timer.
//
// Each timer owns the price trajectory of exactly one listing: it
// registers the listing into the catalogue on start, lowers the asking
// price on a fixed tick from the initial price toward the floor price,
// and retires the listing at its deadline. The timer is the only writer
// of the current price.
//
// Two decay formulas are supported. The default lowers the price in
// proportion to elapsed time, reaching the floor at the deadline. The
// legacy formula truncates the elapsed/total ratio to an integer, which
// keeps the price at its initial value until the deadline; it exists only
// for compatibility with the historical system and is off by default.
package pricing
