package coordinator

import "github.com/shadeboard/coordinator/store"

// Option configures the ledger.
type Option func(*config)

type config struct {
	owner   string
	store   store.Store
	host    ContinuationHost
	metrics Metrics
}

// WithOwner sets the admin account used on first initialization. Ignored
// when an owner is already persisted.
func WithOwner(owner string) Option {
	return func(c *config) {
		c.owner = owner
	}
}

// WithStore sets the persistence backend.
func WithStore(s store.Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithHost sets the suspend/resume continuation host.
func WithHost(h ContinuationHost) Option {
	return func(c *config) {
		c.host = h
	}
}

// WithMetrics sets the instrumentation sink; defaults to no-op.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}
