package services

import (
	"fmt"
	"strings"

	"opsflow/internal/models"

	"github.com/google/uuid"
)

type WorkflowKind string

const (
	KindQuoteValidated        WorkflowKind = "onQuoteValidated"
	KindQuoteSent             WorkflowKind = "onQuoteSent"
	KindInterventionPlanned   WorkflowKind = "onInterventionPlanned"
	KindInterventionCompleted WorkflowKind = "onInterventionCompleted"
	KindAuditCompleted        WorkflowKind = "onAuditCompleted"
)

// WorkflowRequest is the wire shape of a workflow invocation.
type WorkflowRequest struct {
	Kind           string `json:"kind"`
	QuoteID        string `json:"quote_id,omitempty"`
	InterventionID string `json:"intervention_id,omitempty"`
	AuditID        string `json:"audit_id,omitempty"`
}

// Event is the closed set of workflow events. Only types in this file implement it.
type Event interface {
	Kind() WorkflowKind
	EntityType() models.EntityType
	EntityID() uuid.UUID
	workflowEvent()
}

type QuoteValidated struct{ QuoteID uuid.UUID }

type QuoteSent struct{ QuoteID uuid.UUID }

type InterventionPlanned struct{ InterventionID uuid.UUID }

type InterventionCompleted struct{ InterventionID uuid.UUID }

type AuditCompleted struct{ AuditID uuid.UUID }

func (QuoteValidated) Kind() WorkflowKind            { return KindQuoteValidated }
func (QuoteValidated) EntityType() models.EntityType { return models.EntityTypeQuote }
func (e QuoteValidated) EntityID() uuid.UUID         { return e.QuoteID }
func (QuoteValidated) workflowEvent()                {}

func (QuoteSent) Kind() WorkflowKind            { return KindQuoteSent }
func (QuoteSent) EntityType() models.EntityType { return models.EntityTypeQuote }
func (e QuoteSent) EntityID() uuid.UUID         { return e.QuoteID }
func (QuoteSent) workflowEvent()                {}

func (InterventionPlanned) Kind() WorkflowKind            { return KindInterventionPlanned }
func (InterventionPlanned) EntityType() models.EntityType { return models.EntityTypeIntervention }
func (e InterventionPlanned) EntityID() uuid.UUID         { return e.InterventionID }
func (InterventionPlanned) workflowEvent()                {}

func (InterventionCompleted) Kind() WorkflowKind            { return KindInterventionCompleted }
func (InterventionCompleted) EntityType() models.EntityType { return models.EntityTypeIntervention }
func (e InterventionCompleted) EntityID() uuid.UUID         { return e.InterventionID }
func (InterventionCompleted) workflowEvent()                {}

func (AuditCompleted) Kind() WorkflowKind            { return KindAuditCompleted }
func (AuditCompleted) EntityType() models.EntityType { return models.EntityTypeAudit }
func (e AuditCompleted) EntityID() uuid.UUID         { return e.AuditID }
func (AuditCompleted) workflowEvent()                {}

// ParseEvent is the only place the kind string is interpreted. It returns ErrUnknownKind,
// ErrMissingField or ErrInvalidField, wrapped with the offending name.
func ParseEvent(req WorkflowRequest) (Event, error) {
	switch WorkflowKind(req.Kind) {
	case KindQuoteValidated:
		id, err := parseID("quote_id", req.QuoteID)
		if err != nil {
			return nil, err
		}
		return QuoteValidated{QuoteID: id}, nil
	case KindQuoteSent:
		id, err := parseID("quote_id", req.QuoteID)
		if err != nil {
			return nil, err
		}
		return QuoteSent{QuoteID: id}, nil
	case KindInterventionPlanned:
		id, err := parseID("intervention_id", req.InterventionID)
		if err != nil {
			return nil, err
		}
		return InterventionPlanned{InterventionID: id}, nil
	case KindInterventionCompleted:
		id, err := parseID("intervention_id", req.InterventionID)
		if err != nil {
			return nil, err
		}
		return InterventionCompleted{InterventionID: id}, nil
	case KindAuditCompleted:
		id, err := parseID("audit_id", req.AuditID)
		if err != nil {
			return nil, err
		}
		return AuditCompleted{AuditID: id}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
}

func parseID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrMissingField, field)
	}

	id, err := uuid.Parse(value)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	return id, nil
}
