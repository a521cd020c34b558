// Package approval maps channel trust records onto publication states.
package approval

import (
	"context"

	"github.com/pulsewire/ingest/internal/logger"
	"github.com/pulsewire/ingest/internal/models"
)

// TrustLookup finds the trust record for a channel id. A nil record with a
// nil error means the channel is unknown.
type TrustLookup func(ctx context.Context, channelID string) (*models.TrustRecord, error)

// DecideApproval returns Approved only for a verified, auto-approve channel.
// Unknown channels and lookup failures fail closed toward manual review.
func DecideApproval(ctx context.Context, channelID string, lookup TrustLookup) models.ApprovalState {
	if channelID == "" || lookup == nil {
		return models.ApprovalPendingReview
	}

	record, err := lookup(ctx, channelID)
	if err != nil {
		log := logger.With("approval")
		log.Warn().
			Err(err).
			Str("channel_id", channelID).
			Msg("Trust lookup failed, holding item for review")
		return models.ApprovalPendingReview
	}
	if record == nil {
		return models.ApprovalPendingReview
	}

	if record.Verified() && record.AutoApprove {
		return models.ApprovalApproved
	}
	return models.ApprovalPendingReview
}

// LookupFromRecords builds an in-memory TrustLookup over a resolved record
// list, so one directory fetch serves a whole cycle.
func LookupFromRecords(records []models.TrustRecord) TrustLookup {
	byID := make(map[string]models.TrustRecord, len(records))
	for _, rec := range records {
		byID[rec.ChannelID] = rec
	}
	return func(ctx context.Context, channelID string) (*models.TrustRecord, error) {
		rec, ok := byID[channelID]
		if !ok {
			return nil, nil
		}
		return &rec, nil
	}
}
