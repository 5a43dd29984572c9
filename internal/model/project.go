package model

import (
	"time"
)

// Project is an idea-stage initiative. Community votes promote it into a
// fundable state; promoted projects may also accept direct contributions.
type Project struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category"`

	OwnerAddress string `json:"owner_address" gorm:"not null;index"`

	// Direct-funding fields, in minor units.
	GoalAmount      int64 `json:"goal_amount" gorm:"default:0"`
	RaisedAmount    int64 `json:"raised_amount" gorm:"default:0"`
	MinContribution int64 `json:"min_contribution" gorm:"default:0"`
	MaxContribution int64 `json:"max_contribution" gorm:"default:0"`

	EndDate time.Time `json:"end_date"`

	Status ProjectStatus `json:"status" gorm:"default:'idea'"`

	Team []ProjectTeamMember `json:"team,omitempty" gorm:"foreignKey:ProjectId"`
}

// ProjectStatus is the project lifecycle state.
type ProjectStatus string

const (
	ProjectStatusIdea      ProjectStatus = "idea"      // created, not yet open for votes
	ProjectStatusVoting    ProjectStatus = "voting"    // accumulating community votes
	ProjectStatusPromoted  ProjectStatus = "promoted"  // vote threshold met
	ProjectStatusLive      ProjectStatus = "live"      // open for direct funding
	ProjectStatusFunded    ProjectStatus = "funded"    // raised >= goal
	ProjectStatusRejected  ProjectStatus = "rejected"  // declined by admins
	ProjectStatusExpired   ProjectStatus = "expired"   // vote deadline passed below threshold
	ProjectStatusCancelled ProjectStatus = "cancelled" // withdrawn, terminal
)

// Fundable reports whether the project accepts contributions.
func (s ProjectStatus) Fundable() bool {
	return s == ProjectStatusLive
}

func (Project) TableName() string {
	return "project"
}

// ProjectTeamMember links an address to a project team. Team membership
// triggers the self-funding ban.
type ProjectTeamMember struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId     int64  `json:"project_id" gorm:"not null;uniqueIndex:idx_project_member"`
	MemberAddress string `json:"member_address" gorm:"not null;uniqueIndex:idx_project_member"`
	Role          string `json:"role"`
}

func (ProjectTeamMember) TableName() string {
	return "project_team_member"
}
