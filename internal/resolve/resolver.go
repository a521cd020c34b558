// Package resolve implements ordered fallback chains for configuration
// values: remote store, derived sources, built-in lists, emergency
// constants. The first provider returning a non-empty result wins and its
// name is reported as the value's provenance.
package resolve

import (
	"context"

	"github.com/pulsewire/ingest/internal/logger"
	"github.com/rs/zerolog"
)

// Provenance names the provider that produced a resolved value
type Provenance string

// ProvenanceDefault marks a value that fell all the way through to the
// chain's built-in default.
const ProvenanceDefault Provenance = "builtin-default"

// Provider is one tier of a fallback chain. Fetch may fail or return an
// empty value; either moves the chain to the next tier.
type Provider[T any] struct {
	Name  string
	Fetch func(ctx context.Context) (T, error)
}

// Chain resolves a value through an ordered provider list. Resolve never
// returns an error: when every tier fails or comes back empty, the built-in
// default is returned instead so callers always hold a usable value.
type Chain[T any] struct {
	name      string
	fallback  T
	isEmpty   func(T) bool
	providers []Provider[T]
	log       zerolog.Logger
}

// NewChain builds a chain. isEmpty decides whether a provider's successful
// result still counts as missing (nil slice, zero struct).
func NewChain[T any](name string, fallback T, isEmpty func(T) bool, providers ...Provider[T]) *Chain[T] {
	return &Chain[T]{
		name:      name,
		fallback:  fallback,
		isEmpty:   isEmpty,
		providers: providers,
		log:       logger.With("resolver"),
	}
}

// Resolve walks the providers in order and returns the first non-empty
// success together with its provenance.
func (c *Chain[T]) Resolve(ctx context.Context) (T, Provenance) {
	for _, p := range c.providers {
		value, err := p.Fetch(ctx)
		if err != nil {
			// Recovered locally: the next tier takes over
			c.log.Warn().
				Err(err).
				Str("chain", c.name).
				Str("provider", p.Name).
				Msg("Provider failed, trying next tier")
			continue
		}
		if c.isEmpty != nil && c.isEmpty(value) {
			c.log.Debug().
				Str("chain", c.name).
				Str("provider", p.Name).
				Msg("Provider returned empty value, trying next tier")
			continue
		}

		c.log.Info().
			Str("chain", c.name).
			Str("provider", p.Name).
			Msg("Resolved value")
		return value, Provenance(p.Name)
	}

	c.log.Warn().
		Str("chain", c.name).
		Msg("All providers failed or empty, using built-in default")
	return c.fallback, ProvenanceDefault
}

// EmptySlice is the isEmpty predicate for slice-valued chains
func EmptySlice[E any](s []E) bool { return len(s) == 0 }
