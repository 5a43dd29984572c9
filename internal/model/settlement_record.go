package model

import (
	"time"
)

// SettlementKind classifies what a settlement transaction did.
type SettlementKind string

const (
	SettlementKindProvision SettlementKind = "provision" // escrow contract created
	SettlementKindLock      SettlementKind = "lock"      // funds locked for a milestone
	SettlementKindRelease   SettlementKind = "release"   // milestone payout released

	SettlementKindContribution SettlementKind = "contribution" // funding contribution settled
)

// SettlementStatus is the confirmation state of a mirrored transaction.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "pending"
	SettlementStatusConfirmed SettlementStatus = "confirmed"
	SettlementStatusFailed    SettlementStatus = "failed"
)

// SettlementRecord mirrors one external settlement transaction the
// platform has acted on. The reconciliation monitor confirms these
// against the chain; business state never depends on confirmation.
type SettlementRecord struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Kind   SettlementKind   `json:"kind" gorm:"not null"`
	TxHash string           `json:"tx_hash" gorm:"not null;uniqueIndex"`
	Status SettlementStatus `json:"status" gorm:"default:'pending';index"`

	TargetType string `json:"target_type"`
	TargetId   int64  `json:"target_id"`
	Amount     int64  `json:"amount" gorm:"default:0"`

	BlockNumber uint64     `json:"block_number" gorm:"default:0"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

func (SettlementRecord) TableName() string {
	return "settlement_record"
}
