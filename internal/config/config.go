// Package config loads and validates the seller daemon configuration.
package config

import "time"

// Config is the root configuration for a seller daemon instance.
type Config struct {
	Seller   SellerConfig   `yaml:"seller"`
	Server   ServerConfig   `yaml:"server"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Bus      BusConfig      `yaml:"bus"`
	Database DatabaseConfig `yaml:"database"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

// SellerConfig identifies this seller.
type SellerConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// PricingConfig holds price decay settings applied to every listing.
type PricingConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	LegacyDecay  bool          `yaml:"legacy_decay"`
}

// BusConfig holds message bus settings.
type BusConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// DatabaseConfig holds the optional Postgres connection for the ledger.
type DatabaseConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LedgerConfig holds sale ledger writer settings.
type LedgerConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}
