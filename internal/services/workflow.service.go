package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"opsflow/config"
	"opsflow/internal/events"
	"opsflow/internal/metrics"
	"opsflow/internal/models"
	"opsflow/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Publisher is the part of the event bus the workflow needs.
type Publisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type NotificationOutcome struct {
	Attempted bool   `json:"attempted"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// WorkflowResult separates the primary state change from the best-effort notification.
// Applied means this call performed the change; Duplicate means it was already in place
// and nothing was rewritten.
type WorkflowResult struct {
	Kind           WorkflowKind        `json:"kind"`
	EntityType     models.EntityType   `json:"entity_type"`
	EntityID       uuid.UUID           `json:"entity_id"`
	Applied        bool                `json:"applied"`
	Duplicate      bool                `json:"duplicate"`
	InterventionID *uuid.UUID          `json:"intervention_id,omitempty"`
	FollowupID     *uuid.UUID          `json:"followup_id,omitempty"`
	ReportURL      *string             `json:"report_url,omitempty"`
	Notification   NotificationOutcome `json:"notification"`
}

type WorkflowService struct {
	transaction *TransactionService
	repos       repositories.Repository
	notifier    Notifier
	publisher   Publisher
	store       DocumentStore
	config      config.Config
	now         func() time.Time
	log         logger.Logger
}

func NewWorkflowService(
	transaction *TransactionService,
	repos repositories.Repository,
	notifier Notifier,
	publisher Publisher,
	store DocumentStore,
	config config.Config,
) *WorkflowService {
	return &WorkflowService{
		transaction: transaction,
		repos:       repos,
		notifier:    notifier,
		publisher:   publisher,
		store:       store,
		config:      config,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.New("WorkflowService"),
	}
}

// Dispatch runs the side-effect chain for event. The primary writes and the workflow log
// row commit together; the email, document upload and bus publish happen after commit
// and never turn a committed change into an error.
func (s *WorkflowService) Dispatch(
	ctx context.Context,
	event Event,
	actorID *uuid.UUID,
) (*WorkflowResult, error) {
	log := s.log.TraceFromContext(ctx).Function("Dispatch")

	result := &WorkflowResult{
		Kind:       event.Kind(),
		EntityType: event.EntityType(),
		EntityID:   event.EntityID(),
	}

	var email *EmailRequest
	var err error

	switch e := event.(type) {
	case QuoteValidated:
		err = s.quoteValidated(ctx, e, actorID, result)
	case QuoteSent:
		email, err = s.quoteSent(ctx, e, actorID, result)
	case InterventionPlanned:
		email, err = s.interventionPlanned(ctx, e, actorID, result)
	case InterventionCompleted:
		err = s.interventionCompleted(ctx, e, actorID, result)
	case AuditCompleted:
		err = s.auditCompleted(ctx, e, actorID, result)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownKind, event)
	}

	if err != nil {
		metrics.IncWorkflowEvent(string(event.Kind()), "error")
		if !errors.Is(err, ErrNotFound) {
			log.Er("workflow event failed", err, "kind", event.Kind(), "entityID", event.EntityID())
		}
		return nil, err
	}

	if email != nil {
		result.Notification = s.notify(ctx, *email)
	}

	s.publish(ctx, result, actorID)

	outcome := "applied"
	if result.Duplicate {
		outcome = "duplicate"
	}
	metrics.IncWorkflowEvent(string(event.Kind()), outcome)

	log.Info(
		"Workflow event handled",
		"kind", result.Kind,
		"entityID", result.EntityID,
		"applied", result.Applied,
		"duplicate", result.Duplicate,
		"notificationSent", result.Notification.Sent,
	)

	return result, nil
}

// quoteValidated creates the intervention for the quote. The unique quote_id index makes
// the first validation win; later calls return the existing intervention as a duplicate.
func (s *WorkflowService) quoteValidated(
	ctx context.Context,
	e QuoteValidated,
	actorID *uuid.UUID,
	result *WorkflowResult,
) error {
	return s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		quote, err := s.repos.Quote.GetByID(ctx, tx, e.QuoteID)
		if err != nil {
			return err
		}

		if quote.Status == models.QuoteStatusRejected {
			return fmt.Errorf("%w: quote %s was rejected", ErrInvalidTransition, quote.ID)
		}

		now := s.now()
		if _, err := s.repos.Quote.MarkValidated(ctx, tx, quote.ID, now); err != nil {
			return err
		}

		intervention := &models.Intervention{
			QuoteID:          quote.ID,
			ServiceRequestID: &quote.ServiceRequestID,
			CompanyID:        quote.CompanyID,
			ClientID:         quote.ClientID,
			Status:           models.InterventionStatusWaiting,
		}
		created, err := s.repos.Intervention.CreateForQuote(ctx, tx, intervention)
		if err != nil {
			return err
		}

		result.InterventionID = &intervention.ID
		if !created {
			result.Duplicate = true
			return nil
		}
		result.Applied = true

		if _, err := s.repos.ServiceRequest.UpdateStatus(
			ctx,
			tx,
			quote.ServiceRequestID,
			models.ServiceRequestStatusPending,
			map[string]any{"status": models.ServiceRequestStatusInProgress},
		); err != nil {
			return err
		}

		return s.appendLog(ctx, tx, models.EntityTypeQuote, quote.ID, models.ActionQuoteValidated, actorID,
			map[string]any{
				"reference":       quote.Reference,
				"intervention_id": intervention.ID,
				"total_ttc":       quote.TotalTTC.StringFixed(2),
			})
	})
}

func (s *WorkflowService) quoteSent(
	ctx context.Context,
	e QuoteSent,
	actorID *uuid.UUID,
	result *WorkflowResult,
) (*EmailRequest, error) {
	var quote *models.Quote

	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		q, err := s.repos.Quote.GetByID(ctx, tx, e.QuoteID)
		if err != nil {
			return err
		}

		now := s.now()
		sent, err := s.repos.Quote.MarkSent(ctx, tx, q.ID, now)
		if err != nil {
			return err
		}
		if !sent {
			return fmt.Errorf("%w: quote %s is %q", ErrInvalidTransition, q.ID, q.Status)
		}
		q.Status = models.QuoteStatusAwaitingClient
		q.SentAt = &now
		quote = q

		return s.appendLog(ctx, tx, models.EntityTypeQuote, q.ID, models.ActionQuoteSent, actorID,
			map[string]any{
				"reference": q.Reference,
				"total_ttc": q.TotalTTC.StringFixed(2),
			})
	})
	if err != nil {
		return nil, err
	}
	result.Applied = true

	req := EmailRequest{
		Type:        EmailTypeQuote,
		QuoteNumber: quote.Reference,
		Amount:      quote.TotalTTC.StringFixed(2),
	}
	if quote.Client != nil {
		req.To = quote.Client.ContactEmail()
		req.ClientName = quote.Client.FullName
	}
	if quote.PDFURL != nil {
		req.PDFURL = *quote.PDFURL
	}
	if quote.ServiceRequest != nil {
		req.RequestTitle = quote.ServiceRequest.Title
		req.ServiceType = quote.ServiceRequest.ServiceType
	}

	return &req, nil
}

// interventionPlanned only logs and notifies. The caller has already set the planned
// status and date.
func (s *WorkflowService) interventionPlanned(
	ctx context.Context,
	e InterventionPlanned,
	actorID *uuid.UUID,
	result *WorkflowResult,
) (*EmailRequest, error) {
	var intervention *models.Intervention

	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		i, err := s.repos.Intervention.GetByID(ctx, tx, e.InterventionID)
		if err != nil {
			return err
		}
		intervention = i

		return s.appendLog(ctx, tx, models.EntityTypeIntervention, i.ID, models.ActionInterventionPlanned, actorID,
			map[string]any{
				"status":         i.Status,
				"scheduled_date": i.ScheduledDate,
				"technician":     i.Technician,
			})
	})
	if err != nil {
		return nil, err
	}
	result.Applied = true
	result.InterventionID = &intervention.ID

	req := EmailRequest{
		Type:             EmailTypeInterventionDate,
		InterventionDate: "à définir",
	}
	if intervention.ScheduledDate != nil {
		req.InterventionDate = intervention.ScheduledDate.Format("02/01/2006 à 15:04")
	}
	if intervention.Client != nil {
		req.To = intervention.Client.ContactEmail()
		req.ClientName = intervention.Client.FullName
	}
	if intervention.ServiceRequest != nil {
		req.ServiceType = intervention.ServiceRequest.ServiceType
		req.RequestTitle = intervention.ServiceRequest.Title
	}

	return &req, nil
}

// interventionCompleted is guarded by a conditional update on status, so a repeated call
// neither moves the end date nor creates a second followup.
func (s *WorkflowService) interventionCompleted(
	ctx context.Context,
	e InterventionCompleted,
	actorID *uuid.UUID,
	result *WorkflowResult,
) error {
	return s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		intervention, err := s.repos.Intervention.GetByID(ctx, tx, e.InterventionID)
		if err != nil {
			return err
		}
		result.InterventionID = &intervention.ID

		now := s.now()
		changed, err := s.repos.Intervention.MarkCompleted(ctx, tx, intervention.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			result.Duplicate = true
			return nil
		}
		result.Applied = true

		followup := models.NewPostInterventionFollowup(intervention, now)
		if err := s.repos.Followup.Create(ctx, tx, followup); err != nil {
			return err
		}
		result.FollowupID = &followup.ID

		if intervention.ServiceRequestID != nil {
			if _, err := s.repos.ServiceRequest.UpdateStatus(
				ctx,
				tx,
				*intervention.ServiceRequestID,
				models.ServiceRequestStatusInProgress,
				map[string]any{
					"status":         models.ServiceRequestStatusCompleted,
					"completed_date": now,
				},
			); err != nil {
				return err
			}
		}

		return s.appendLog(ctx, tx, models.EntityTypeIntervention, intervention.ID, models.ActionInterventionCompleted, actorID,
			map[string]any{
				"end_date":         now,
				"followup_id":      followup.ID,
				"next_action_date": followup.NextActionDate,
			})
	})
}

// auditCompleted scores the audit and caches the HTML report on the row. A report that
// is already cached is kept as is. The PDF upload runs after commit.
func (s *WorkflowService) auditCompleted(
	ctx context.Context,
	e AuditCompleted,
	actorID *uuid.UUID,
	result *WorkflowResult,
) error {
	var report *AuditReport

	err := s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		audit, err := s.repos.Audit.GetByID(ctx, tx, e.AuditID)
		if err != nil {
			return err
		}

		if audit.Status == models.AuditStatusCompleted && audit.HasCachedReport() {
			result.Duplicate = true
			if audit.ReportPDFURL != nil {
				result.ReportURL = audit.ReportPDFURL
			}
			return nil
		}

		input, err := AuditReportInputFrom(audit, s.now())
		if err != nil {
			return err
		}
		report, err = GenerateAuditReport(input)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"status": models.AuditStatusCompleted,
			"score":  decimal.NewFromFloat(report.OverallScore),
		}
		if !audit.HasCachedReport() {
			updates["generated_report"] = report.HTML
			updates["report_generated_at"] = input.GeneratedAt
		}
		if err := s.repos.Audit.Update(ctx, tx, audit.ID, updates); err != nil {
			return err
		}
		result.Applied = true

		return s.appendLog(ctx, tx, models.EntityTypeAudit, audit.ID, models.ActionAuditCompleted, actorID,
			map[string]any{
				"score":      report.OverallScore,
				"risk_level": report.RiskLevel,
			})
	})
	if err != nil {
		return err
	}

	if report != nil {
		if url := s.uploadAuditReport(ctx, e.AuditID, report); url != "" {
			result.ReportURL = &url
		}
	}

	return nil
}

func (s *WorkflowService) uploadAuditReport(ctx context.Context, auditID uuid.UUID, report *AuditReport) string {
	log := s.log.TraceFromContext(ctx).Function("uploadAuditReport")

	if s.store == nil {
		return ""
	}

	pdf, err := RenderAuditReportPDF(report)
	if err != nil {
		log.Er("failed to render audit report pdf", err, "auditID", auditID)
		return ""
	}

	url, err := s.store.Upload(ctx, s.config.ReportsBucket, "audits/"+auditID.String()+".pdf", "application/pdf", pdf)
	if err != nil {
		if !errors.Is(err, ErrStorageDisabled) {
			log.Warn("audit report upload failed", "auditID", auditID, "error", err)
		}
		return ""
	}

	err = s.transaction.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.repos.Audit.Update(ctx, tx, auditID, map[string]any{"report_pdf_url": url})
	})
	if err != nil {
		log.Warn("failed to store audit report url", "auditID", auditID, "error", err)
		return ""
	}

	return url
}

func (s *WorkflowService) notify(ctx context.Context, req EmailRequest) NotificationOutcome {
	log := s.log.TraceFromContext(ctx).Function("notify")

	if s.notifier == nil {
		return NotificationOutcome{Error: "notifications disabled"}
	}

	if req.To == "" {
		log.Warn("no recipient email on file, notification skipped", "type", req.Type)
		return NotificationOutcome{Error: "no recipient email on file"}
	}

	if err := s.notifier.Send(ctx, req); err != nil {
		log.Warn("notification failed", "type", req.Type, "error", err)
		return NotificationOutcome{Attempted: true, Error: err.Error()}
	}

	return NotificationOutcome{Attempted: true, Sent: true}
}

func (s *WorkflowService) publish(ctx context.Context, result *WorkflowResult, actorID *uuid.UUID) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(events.WORKFLOW_CHANNEL, events.Event{
		Type:    events.WORKFLOW,
		ActorID: actorID,
		Data: map[string]any{
			"kind":        result.Kind,
			"entity_type": result.EntityType,
			"entity_id":   result.EntityID.String(),
			"applied":     result.Applied,
			"duplicate":   result.Duplicate,
		},
	})
	if err != nil {
		s.log.TraceFromContext(ctx).Function("publish").
			Warn("failed to publish workflow event", "kind", result.Kind, "error", err)
	}
}

func (s *WorkflowService) appendLog(
	ctx context.Context,
	tx *gorm.DB,
	entityType models.EntityType,
	entityID uuid.UUID,
	action models.WorkflowAction,
	actorID *uuid.UUID,
	details map[string]any,
) error {
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal workflow log details: %w", err)
	}

	return s.repos.WorkflowLog.Create(ctx, tx, &models.WorkflowLog{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		Details:     datatypes.JSON(data),
		PerformedBy: actorID,
	})
}
