package config

import "fmt"

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Seller.ID == "" {
		return fmt.Errorf("seller.id is required")
	}
	if c.Pricing.TickInterval <= 0 {
		return fmt.Errorf("pricing.tick_interval must be positive")
	}
	if c.Bus.QueueSize <= 0 {
		return fmt.Errorf("bus.queue_size must be positive")
	}
	if c.Ledger.BatchSize <= 0 {
		return fmt.Errorf("ledger.batch_size must be positive")
	}
	if c.Ledger.FlushInterval <= 0 {
		return fmt.Errorf("ledger.flush_interval must be positive")
	}

	if c.Database.Enabled {
		db := c.Database.Postgres
		if db.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if db.Name == "" {
			return fmt.Errorf("database.postgres.name is required")
		}
		if db.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
		if db.Password == "" {
			return fmt.Errorf("database.postgres.password is required")
		}
		if db.MinConns > db.MaxConns {
			return fmt.Errorf("database.postgres.min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
		}
	}

	return nil
}
