package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterventionStatus string

const (
	InterventionStatusWaiting    InterventionStatus = "En attente"
	InterventionStatusPlanned    InterventionStatus = "Planifiée"
	InterventionStatusInProgress InterventionStatus = "En cours"
	InterventionStatusCompleted  InterventionStatus = "Terminée"
	InterventionStatusClosed     InterventionStatus = "Clôturée"
)

// Intervention is created once per validated quote. The unique index on QuoteID is what
// keeps concurrent validations from producing a second row.
type Intervention struct {
	BaseUUIDModel
	QuoteID          uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_interventions_quote" json:"quoteId"`
	ServiceRequestID *uuid.UUID         `gorm:"type:uuid;index:idx_interventions_service_request"      json:"serviceRequestId,omitempty"`
	CompanyID        *uuid.UUID         `gorm:"type:uuid;index:idx_interventions_company"              json:"companyId,omitempty"`
	ClientID         uuid.UUID          `gorm:"type:uuid;not null;index:idx_interventions_client"      json:"clientId"`
	Status           InterventionStatus `gorm:"type:text;not null;default:'En attente';index"          json:"status"`
	ScheduledDate    *time.Time         `gorm:"type:timestamp"                                         json:"scheduledDate,omitempty"`
	StartDate        *time.Time         `gorm:"type:timestamp"                                         json:"startDate,omitempty"`
	EndDate          *time.Time         `gorm:"type:timestamp"                                         json:"endDate,omitempty"`
	Technician       *string            `gorm:"type:text"                                              json:"technician,omitempty"`
	ReportNotes      *string            `gorm:"type:text"                                              json:"reportNotes,omitempty"`

	Quote          *Quote          `gorm:"foreignKey:QuoteID"          json:"quote,omitempty"`
	ServiceRequest *ServiceRequest `gorm:"foreignKey:ServiceRequestID" json:"serviceRequest,omitempty"`
	Client         *Profile        `gorm:"foreignKey:ClientID"         json:"client,omitempty"`
}

func (i *Intervention) BeforeCreate(tx *gorm.DB) error {
	i.ensureID()
	if i.QuoteID == uuid.Nil || i.ClientID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if i.Status == "" {
		i.Status = InterventionStatusWaiting
	}
	return nil
}

// IsFinished reports whether the work is done, closed or not.
func (i *Intervention) IsFinished() bool {
	return i.Status == InterventionStatusCompleted || i.Status == InterventionStatusClosed
}
