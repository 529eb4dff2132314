// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file records processed payment-provider webhook event
// ids so that replayed deliveries are suppressed instead of creating
// duplicate bookings.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trailhead-app/go-tours-backend/internal/domain"
)

// MarkWebhookProcessed records eventID as handled. It reports alreadySeen
// when a previous delivery of the same event was recorded. The insert uses
// ON CONFLICT DO NOTHING on the event-id primary key, so when concurrent
// first deliveries race, exactly one reports alreadySeen=false and the rest
// see a zero-row insert instead of a constraint error.
func MarkWebhookProcessed(ctx context.Context, db *gorm.DB, eventID, eventType string, now time.Time) (alreadySeen bool, err error) {
	ev := domain.WebhookEvent{ID: eventID, Type: eventType, ProcessedAt: now}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 0, nil
}

// PurgeWebhookEvents removes processed-event records older than cutoff.
// Replay protection only needs to outlive the provider's retry horizon.
func PurgeWebhookEvents(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&domain.WebhookEvent{})
	return res.RowsAffected, res.Error
}
