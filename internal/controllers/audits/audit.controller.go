package auditController

import (
	"context"
	"fmt"
	"time"

	"opsflow/config"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"
	"opsflow/internal/validation"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AnswerRequest struct {
	Category string  `json:"category"`
	Question string  `json:"question" validate:"required"`
	Score    int     `json:"score"    validate:"min=0,max=5"`
	Weight   float64 `json:"weight"   validate:"min=0"`
}

type CreateAuditRequest struct {
	ClientID uuid.UUID       `json:"clientId" validate:"required"`
	Title    string          `json:"title"    validate:"required,max=200"`
	Answers  []AnswerRequest `json:"answers"  validate:"required,min=1,dive"`
}

type ReportResponse struct {
	AuditID     uuid.UUID `json:"auditId"`
	HTML        string    `json:"html"`
	GeneratedAt time.Time `json:"generatedAt"`
	Cached      bool      `json:"cached"`
}

type AuditControllerInterface interface {
	Create(ctx context.Context, user *Profile, request *CreateAuditRequest) (*Audit, error)
	List(ctx context.Context) ([]*Audit, error)
	ListOwn(ctx context.Context, user *Profile) ([]*Audit, error)
	Get(ctx context.Context, user *Profile, id uuid.UUID) (*Audit, error)
	Report(ctx context.Context, user *Profile, id uuid.UUID, refresh bool) (*ReportResponse, error)
	Complete(ctx context.Context, user *Profile, id uuid.UUID) (*services.WorkflowResult, error)
}

type AuditController struct {
	auditRepo       repositories.AuditRepository
	profileRepo     repositories.ProfileRepository
	workflowService *services.WorkflowService
	validator       *validation.Validator
	db              database.DB
	Config          config.Config
	log             logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) AuditControllerInterface {
	return &AuditController{
		auditRepo:       repos.Audit,
		profileRepo:     repos.Profile,
		workflowService: services.Workflow,
		validator:       validation.New(),
		db:              db,
		Config:          config,
		log:             logger.New("auditController"),
	}
}

func (c *AuditController) Create(
	ctx context.Context,
	user *Profile,
	request *CreateAuditRequest,
) (*Audit, error) {
	log := c.log.Function("Create")

	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	client, err := c.profileRepo.GetByID(ctx, c.db.SQL, request.ClientID)
	if err != nil {
		return nil, err
	}

	answers := make([]AuditAnswer, 0, len(request.Answers))
	for _, answer := range request.Answers {
		answers = append(answers, AuditAnswer{
			Category: answer.Category,
			Question: answer.Question,
			Score:    answer.Score,
			Weight:   answer.Weight,
		})
	}

	audit := &Audit{
		CompanyID: client.CompanyID,
		ClientID:  client.ID,
		Title:     request.Title,
		Status:    AuditStatusDraft,
	}
	if err := audit.SetAnswers(answers); err != nil {
		return nil, log.Err("failed to encode answers", err)
	}

	if err := c.auditRepo.Create(ctx, c.db.SQL, audit); err != nil {
		return nil, log.Err("failed to create audit", err, "clientID", client.ID)
	}

	log.Info("Audit created", "auditID", audit.ID, "clientID", client.ID, "createdBy", user.ID)
	return audit, nil
}

func (c *AuditController) List(ctx context.Context) ([]*Audit, error) {
	return c.auditRepo.List(ctx, c.db.SQL)
}

func (c *AuditController) ListOwn(ctx context.Context, user *Profile) ([]*Audit, error) {
	return c.auditRepo.ListByClient(ctx, c.db.SQL, user.ID)
}

func (c *AuditController) Get(ctx context.Context, user *Profile, id uuid.UUID) (*Audit, error) {
	audit, err := c.auditRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() && audit.ClientID != user.ID {
		return nil, fmt.Errorf("%w: audit %s", services.ErrForbidden, id)
	}

	return audit, nil
}

// Report serves the cached HTML unless refresh is set or nothing is cached yet. A fresh
// report replaces the cached one and the stored score.
func (c *AuditController) Report(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
	refresh bool,
) (*ReportResponse, error) {
	log := c.log.Function("Report")

	audit, err := c.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	if audit.HasCachedReport() && !refresh {
		response := &ReportResponse{AuditID: audit.ID, HTML: *audit.GeneratedReport, Cached: true}
		if audit.ReportGeneratedAt != nil {
			response.GeneratedAt = *audit.ReportGeneratedAt
		}
		return response, nil
	}

	now := time.Now().UTC()
	input, err := services.AuditReportInputFrom(audit, now)
	if err != nil {
		return nil, err
	}

	report, err := services.GenerateAuditReport(input)
	if err != nil {
		return nil, err
	}

	if err := c.auditRepo.Update(ctx, c.db.SQL, audit.ID, map[string]any{
		"generated_report":    report.HTML,
		"report_generated_at": now,
		"score":               decimal.NewFromFloat(report.OverallScore),
	}); err != nil {
		return nil, err
	}

	log.Info("Audit report generated", "auditID", audit.ID, "score", report.OverallScore, "refresh", refresh)

	return &ReportResponse{AuditID: audit.ID, HTML: report.HTML, GeneratedAt: now}, nil
}

func (c *AuditController) Complete(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
) (*services.WorkflowResult, error) {
	return c.workflowService.Dispatch(ctx, services.AuditCompleted{AuditID: id}, &user.ID)
}
