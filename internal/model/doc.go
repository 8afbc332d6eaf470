// Package model defines shared data types used across the seller daemon.
//
// Conventions:
//   - Prices: integer price units (no fractional amounts)
//   - Timestamps: time.Time in Go, RFC 3339 on the wire
//   - IDs: string titles for listings, uuid.UUID for ledger records
package model
