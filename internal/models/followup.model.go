package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const FollowupKindPostIntervention = "post_intervention"

// FollowupDelay is how long after an intervention ends its followup falls due.
const FollowupDelay = 7 * 24 * time.Hour

type FollowupStatus string

const (
	FollowupStatusPending FollowupStatus = "pending"
	FollowupStatusDone    FollowupStatus = "done"
)

type Followup struct {
	BaseUUIDModel
	InterventionID uuid.UUID      `gorm:"type:uuid;not null;index:idx_followups_intervention" json:"interventionId"`
	CompanyID      *uuid.UUID     `gorm:"type:uuid;index:idx_followups_company"              json:"companyId,omitempty"`
	ClientID       uuid.UUID      `gorm:"type:uuid;not null"                                 json:"clientId"`
	Kind           string         `gorm:"type:text;not null"                                 json:"kind"`
	Status         FollowupStatus `gorm:"type:text;not null;default:'pending';index"         json:"status"`
	NextActionDate time.Time      `gorm:"type:timestamp;not null;index"                      json:"nextActionDate"`
	Notes          *string        `gorm:"type:text"                                          json:"notes,omitempty"`
	RemindedAt     *time.Time     `gorm:"type:timestamp"                                     json:"remindedAt,omitempty"`

	Intervention *Intervention `gorm:"foreignKey:InterventionID" json:"intervention,omitempty"`
}

func (f *Followup) BeforeCreate(tx *gorm.DB) error {
	f.ensureID()
	if f.InterventionID == uuid.Nil || f.ClientID == uuid.Nil || f.NextActionDate.IsZero() {
		return gorm.ErrInvalidValue
	}
	if f.Kind == "" {
		f.Kind = FollowupKindPostIntervention
	}
	if f.Status == "" {
		f.Status = FollowupStatusPending
	}
	return nil
}

// NewPostInterventionFollowup schedules the followup for a finished intervention.
func NewPostInterventionFollowup(intervention *Intervention, endDate time.Time) *Followup {
	return &Followup{
		InterventionID: intervention.ID,
		CompanyID:      intervention.CompanyID,
		ClientID:       intervention.ClientID,
		Kind:           FollowupKindPostIntervention,
		Status:         FollowupStatusPending,
		NextActionDate: endDate.Add(FollowupDelay),
	}
}
