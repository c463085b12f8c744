package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRequestStatus string

const (
	ServiceRequestStatusPending    ServiceRequestStatus = "pending"
	ServiceRequestStatusInProgress ServiceRequestStatus = "in_progress"
	ServiceRequestStatusCompleted  ServiceRequestStatus = "completed"
	ServiceRequestStatusCancelled  ServiceRequestStatus = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var serviceRequestTransitions = map[ServiceRequestStatus][]ServiceRequestStatus{
	ServiceRequestStatusPending: {
		ServiceRequestStatusInProgress,
		ServiceRequestStatusCancelled,
	},
	ServiceRequestStatusInProgress: {
		ServiceRequestStatusCompleted,
		ServiceRequestStatusCancelled,
	},
}

type ServiceRequest struct {
	BaseUUIDModel
	CompanyID     *uuid.UUID           `gorm:"type:uuid;index:idx_service_requests_company"      json:"companyId,omitempty"`
	ClientID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_service_requests_client" json:"clientId"`
	Title         string               `gorm:"type:text;not null"                                json:"title"`
	Description   *string              `gorm:"type:text"                                         json:"description,omitempty"`
	ServiceType   string               `gorm:"type:text;not null"                                json:"serviceType"`
	Priority      Priority             `gorm:"type:text;not null;default:'normal'"               json:"priority"`
	Status        ServiceRequestStatus `gorm:"type:text;not null;default:'pending';index"        json:"status"`
	RequestedDate *time.Time           `gorm:"type:timestamp"                                    json:"requestedDate,omitempty"`
	ScheduledDate *time.Time           `gorm:"type:timestamp"                                    json:"scheduledDate,omitempty"`
	CompletedDate *time.Time           `gorm:"type:timestamp"                                    json:"completedDate,omitempty"`

	Client  *Profile `gorm:"foreignKey:ClientID"  json:"client,omitempty"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (sr *ServiceRequest) BeforeCreate(tx *gorm.DB) error {
	sr.ensureID()
	if sr.ClientID == uuid.Nil || sr.Title == "" || sr.ServiceType == "" {
		return gorm.ErrInvalidValue
	}
	if sr.Priority == "" {
		sr.Priority = PriorityNormal
	}
	if sr.Status == "" {
		sr.Status = ServiceRequestStatusPending
	}
	return nil
}

// CanTransitionTo reports whether the request may move to next. Requests are never
// deleted, only advanced.
func (sr *ServiceRequest) CanTransitionTo(next ServiceRequestStatus) bool {
	for _, allowed := range serviceRequestTransitions[sr.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
