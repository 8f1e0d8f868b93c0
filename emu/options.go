package emu

import (
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// DefaultDraws is the Monte Carlo draw count Predict uses for errors
	// when none is given.
	DefaultDraws = 1000
	DefaultSeed  = 1
)

type options struct {
	log        logr.Logger
	workers    int
	seed       uint64
	draws      int
	registerer prometheus.Registerer
	cacheSize  int
}

func defaultOptions() options {
	return options{
		log:     logr.Discard(),
		workers: 1,
		seed:    DefaultSeed,
		draws:   DefaultDraws,
	}
}

type Option func(*options)

func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithWorkers sets the number of redshifts processed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSeed sets the seed of the Monte Carlo draws. Predictions with the same
// seed and inputs are identical.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithDraws sets the draw count Predict uses when called with nDraw <= 0.
func WithDraws(n int) Option {
	return func(o *options) {
		o.draws = n
	}
}

// WithRegisterer registers the emulator metrics with r.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithCache keeps the GP posteriors of the last size cosmologies. Zero
// disables the cache.
func WithCache(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}
