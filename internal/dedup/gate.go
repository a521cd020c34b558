// Package dedup checks a candidate's stable identity against already-stored
// items before insertion.
package dedup

import (
	"context"
	"time"

	"github.com/pulsewire/ingest/internal/cache"
	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
	"github.com/pulsewire/ingest/internal/store"
	"github.com/pulsewire/ingest/internal/utils"
	"github.com/rs/zerolog"
)

// Gate answers "was this identity ingested before". It consults the seen
// cache first, then falls back to counting in the content store. On lookup
// failure it degrades to "not a duplicate" — a transient duplicate write is
// preferred over halting the pipeline, and the store's unique-identity
// rejection bounds the damage.
type Gate struct {
	seen    cache.SeenCache
	counter store.ContentStore
	seenTTL time.Duration
	log     zerolog.Logger
}

func NewGate(seen cache.SeenCache, counter store.ContentStore, seenTTL time.Duration) *Gate {
	return &Gate{
		seen:    seen,
		counter: counter,
		seenTTL: seenTTL,
		log:     logger.With("dedup"),
	}
}

// IsDuplicate reports whether the candidate's identity is already stored.
// Same candidate, unchanged store: same verdict every time.
func (g *Gate) IsDuplicate(ctx context.Context, ct models.ContentType, candidate models.CandidateItem) bool {
	if candidate.Identity == "" {
		// No stable identity means nothing to dedup against
		return false
	}

	key := utils.IdentityKey(string(ct), candidate.Identity)

	if g.seen != nil {
		hit, err := g.seen.IsSeen(ctx, key)
		if err != nil {
			g.log.Warn().
				Err(err).
				Str("identity", candidate.Identity).
				Msg("Seen-cache lookup failed, falling through to store")
		} else if hit {
			return true
		}
	}

	if g.counter == nil {
		return false
	}

	n, err := g.counter.Count(ctx, ct, store.Filters{Identity: candidate.Identity})
	if err != nil {
		g.log.Warn().
			Err(err).
			Str("identity", candidate.Identity).
			Msg("Store dedup lookup failed, treating item as new")
		return false
	}
	return n > 0
}

// MarkSeen records an identity after a successful persist. Best-effort.
func (g *Gate) MarkSeen(ctx context.Context, ct models.ContentType, candidate models.CandidateItem) {
	if g.seen == nil || candidate.Identity == "" {
		return
	}
	key := utils.IdentityKey(string(ct), candidate.Identity)
	if err := g.seen.MarkSeen(ctx, key, g.seenTTL); err != nil {
		g.log.Warn().
			Err(err).
			Str("identity", candidate.Identity).
			Msg("Failed to mark item as seen")
	}
}
