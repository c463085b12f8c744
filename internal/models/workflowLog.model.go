package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityTypeQuote        EntityType = "quote"
	EntityTypeIntervention EntityType = "intervention"
	EntityTypeAudit        EntityType = "audit"
)

type WorkflowAction string

const (
	ActionQuoteValidated        WorkflowAction = "QUOTE_VALIDATED"
	ActionQuoteSent             WorkflowAction = "QUOTE_SENT"
	ActionInterventionPlanned   WorkflowAction = "INTERVENTION_PLANNED"
	ActionInterventionCompleted WorkflowAction = "INTERVENTION_COMPLETED"
	ActionAuditCompleted        WorkflowAction = "AUDIT_COMPLETED"
)

// WorkflowLog is an append-only trail row. It carries no UpdatedAt or DeletedAt so
// nothing in the schema invites mutating it.
type WorkflowLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"                                   json:"id"`
	EntityType  EntityType     `gorm:"type:text;not null;index:idx_workflow_logs_entity,priority:1" json:"entityType"`
	EntityID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_workflow_logs_entity,priority:2" json:"entityId"`
	Action      WorkflowAction `gorm:"type:text;not null;index"                               json:"action"`
	Details     datatypes.JSON `gorm:"type:jsonb"                                             json:"details"`
	PerformedBy *uuid.UUID     `gorm:"type:uuid"                                              json:"performedBy,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index"                                   json:"createdAt"`
}

func (wl *WorkflowLog) BeforeCreate(tx *gorm.DB) error {
	if wl.ID == uuid.Nil {
		wl.ID = uuid.Must(uuid.NewV7())
	}
	if wl.EntityID == uuid.Nil || wl.EntityType == "" || wl.Action == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
