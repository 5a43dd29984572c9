package model

import (
	"time"
)

// Event is one audit row written by the notification emitter. Failures
// writing events never roll back the transaction that produced them.
type Event struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	EventId    string `json:"event_id" gorm:"not null;uniqueIndex"`
	EventType  string `json:"event_type" gorm:"not null;index"`
	TargetType string `json:"target_type"`
	TargetId   int64  `json:"target_id"`

	Payload string `json:"payload" gorm:"type:text"`
}

func (Event) TableName() string {
	return "event"
}
