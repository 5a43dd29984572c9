// Package notify is the fire-and-forget notification/audit emitter.
// Emission failures are logged and swallowed; they must never affect the
// financial transaction that produced the event.
package notify

import (
	"encoding/json"

	"github.com/0xdevcollins/boundless-backend/internal/logger"
	"github.com/0xdevcollins/boundless-backend/internal/model"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Lifecycle event types emitted by the core components.
const (
	EventFundingReceived   = "funding.received"
	EventGoalMet           = "funding.goal_met"
	EventCampaignApproved  = "campaign.approved"
	EventThresholdMet      = "vote.threshold_met"
	EventApplicationUpdate = "application.status_changed"
	EventEscrowLocked      = "escrow.locked"
	EventEscrowReleased    = "escrow.released"
)

// Emitter dispatches events on a bounded worker pool and persists them
// as audit rows.
type Emitter struct {
	pool *ants.Pool
	db   *gorm.DB
}

func NewEmitter(db *gorm.DB, workers int) (*Emitter, error) {
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Emitter{pool: pool, db: db}, nil
}

// Emit schedules one event for persistence. It never blocks the caller:
// when the pool is saturated the event is dropped with a log line.
func (e *Emitter) Emit(eventType string, targetType string, targetId int64, payload map[string]interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal %s event payload: %v", eventType, err)
		return
	}

	event := model.Event{
		EventId:    uuid.NewString(),
		EventType:  eventType,
		TargetType: targetType,
		TargetId:   targetId,
		Payload:    string(body),
	}

	if err := e.pool.Submit(func() {
		if err := e.db.Create(&event).Error; err != nil {
			logger.Error("Failed to persist %s event for %s %d: %v", eventType, targetType, targetId, err)
			return
		}
		logger.Debug("Emitted %s event %s for %s %d", eventType, event.EventId, targetType, targetId)
	}); err != nil {
		logger.Warn("Dropped %s event for %s %d: %v", eventType, targetType, targetId, err)
	}
}

// Close drains the pool.
func (e *Emitter) Close() {
	e.pool.Release()
}
