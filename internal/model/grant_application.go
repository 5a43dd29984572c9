package model

import (
	"time"
)

// ApplicationStatus is the grant application workflow state.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted     ApplicationStatus = "submitted"
	ApplicationStatusAwaitingFinal ApplicationStatus = "awaiting_final_approval"
	ApplicationStatusApproved      ApplicationStatus = "approved"
	ApplicationStatusRejected      ApplicationStatus = "rejected" // terminal
	ApplicationStatusInProgress    ApplicationStatus = "in_progress"
	ApplicationStatusCompleted     ApplicationStatus = "completed" // terminal
)

// Terminal reports whether the workflow accepts no further transitions.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusRejected || s == ApplicationStatusCompleted
}

// GrantApplication is one applicant's proposal against a grant. At most
// one non-archived application may exist per (grant, applicant);
// archiving on rejection is what frees the slot for a re-application.
type GrantApplication struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GrantId          int64  `json:"grant_id" gorm:"not null;index:idx_application_grant_applicant"`
	ApplicantAddress string `json:"applicant_address" gorm:"not null;index:idx_application_grant_applicant"`

	Title   string `json:"title" gorm:"not null"`
	Summary string `json:"summary" gorm:"type:text"`

	Status ApplicationStatus `json:"status" gorm:"default:'submitted'"`

	// EscrowedAmount accumulates locked settlement amounts in minor
	// units; only the escrow controller's atomic update moves it.
	EscrowedAmount      int64 `json:"escrowed_amount" gorm:"default:0"`
	MilestonesCompleted int   `json:"milestones_completed" gorm:"default:0"`

	AdminNote string `json:"admin_note" gorm:"type:text"`
	Archived  bool   `json:"archived" gorm:"default:false;index"`

	// Supporting document references, comma-joined.
	SupportingDocuments string `json:"supporting_documents" gorm:"type:text"`

	Milestones []ApplicationMilestone `json:"milestones,omitempty" gorm:"foreignKey:ApplicationId"`
}

func (GrantApplication) TableName() string {
	return "grant_application"
}

// EscrowStatus is the per-milestone escrow state. Transitions are
// one-directional except disputed, which an admin resolves back to
// approved or rejected.
type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "pending"
	EscrowStatusLocked   EscrowStatus = "locked"
	EscrowStatusApproved EscrowStatus = "approved"
	EscrowStatusRejected EscrowStatus = "rejected"
	EscrowStatusDisputed EscrowStatus = "disputed"
	EscrowStatusReleased EscrowStatus = "released"
)

// ApplicationMilestone is one negotiated milestone of an application,
// carrying its escrow mirror state. The local record only mirrors the
// settlement layer; it never initiates fund movement by itself.
type ApplicationMilestone struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ApplicationId int64 `json:"application_id" gorm:"not null;uniqueIndex:idx_app_milestone_ordinal"`
	OrdinalIndex  int   `json:"ordinal_index" gorm:"not null;uniqueIndex:idx_app_milestone_ordinal"`

	Title          string `json:"title" gorm:"not null"`
	Description    string `json:"description" gorm:"type:text"`
	ExpectedPayout int64  `json:"expected_payout" gorm:"not null"`

	EscrowStatus   EscrowStatus `json:"escrow_status" gorm:"default:'pending'"`
	EscrowTxHash   string       `json:"escrow_tx_hash"`
	ReleaseTxHash  string       `json:"release_tx_hash"`
	EscrowedAmount int64        `json:"escrowed_amount" gorm:"default:0"`

	ApprovedBy string `json:"approved_by"`
	RejectedBy string `json:"rejected_by"`

	LockedAt   *time.Time `json:"locked_at"`
	ApprovedAt *time.Time `json:"approved_at"`
	RejectedAt *time.Time `json:"rejected_at"`
	DisputedAt *time.Time `json:"disputed_at"`
	ReleasedAt *time.Time `json:"released_at"`
}

func (ApplicationMilestone) TableName() string {
	return "application_milestone"
}
