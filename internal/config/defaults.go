package config

import "time"

// Default values applied by LoadWithDefaults.
const (
	DefaultListenAddr    = ":8080"
	DefaultTickInterval  = time.Minute
	DefaultQueueSize     = 256
	DefaultBatchSize     = 500
	DefaultFlushInterval = time.Second
	DefaultDBPort        = 5432
	DefaultMaxConns      = 4
)

// applyDefaults fills zero-valued fields with defaults.
func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Pricing.TickInterval == 0 {
		c.Pricing.TickInterval = DefaultTickInterval
	}
	if c.Bus.QueueSize == 0 {
		c.Bus.QueueSize = DefaultQueueSize
	}
	if c.Ledger.BatchSize == 0 {
		c.Ledger.BatchSize = DefaultBatchSize
	}
	if c.Ledger.FlushInterval == 0 {
		c.Ledger.FlushInterval = DefaultFlushInterval
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = DefaultDBPort
	}
	if c.Database.Postgres.MaxConns == 0 {
		c.Database.Postgres.MaxConns = DefaultMaxConns
	}
}

// Default returns a configuration usable without a config file.
func Default() *Config {
	cfg := &Config{
		Seller: SellerConfig{ID: "sellerd"},
	}
	cfg.applyDefaults()
	return cfg
}
