package interventionController

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
	"gorm.io/gorm"
)

type PlanRequest struct {
	ScheduledDate time.Time `json:"scheduledDate"        validate:"required"`
	Technician    *string   `json:"technician,omitempty"`
}

type CompleteRequest struct {
	ReportNotes *string `json:"reportNotes,omitempty"`
}

type InterventionControllerInterface interface {
	List(ctx context.Context, status InterventionStatus) ([]*Intervention, error)
	ListOwn(ctx context.Context, user *Profile) ([]*Intervention, error)
	Get(ctx context.Context, user *Profile, id uuid.UUID) (*Intervention, error)
	Plan(ctx context.Context, user *Profile, id uuid.UUID, request *PlanRequest) (*services.WorkflowResult, error)
	Start(ctx context.Context, id uuid.UUID) (*Intervention, error)
	Complete(
		ctx context.Context,
		user *Profile,
		id uuid.UUID,
		request *CompleteRequest,
	) (*services.WorkflowResult, error)
	Close(ctx context.Context, id uuid.UUID) (*Intervention, error)
}

type InterventionController struct {
	interventionRepo   repositories.InterventionRepository
	transactionService *services.TransactionService
	workflowService    *services.WorkflowService
	validator          *validation.Validator
	db                 database.DB
	Config             config.Config
	log                logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) InterventionControllerInterface {
	return &InterventionController{
		interventionRepo:   repos.Intervention,
		transactionService: services.Transaction,
		workflowService:    services.Workflow,
		validator:          validation.New(),
		db:                 db,
		Config:             config,
		log:                logger.New("interventionController"),
	}
}

func (c *InterventionController) List(
	ctx context.Context,
	status InterventionStatus,
) ([]*Intervention, error) {
	return c.interventionRepo.List(ctx, c.db.SQL, status)
}

func (c *InterventionController) ListOwn(ctx context.Context, user *Profile) ([]*Intervention, error) {
	return c.interventionRepo.ListByClient(ctx, c.db.SQL, user.ID)
}

func (c *InterventionController) Get(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
) (*Intervention, error) {
	intervention, err := c.interventionRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() && intervention.ClientID != user.ID {
		return nil, fmt.Errorf("%w: intervention %s", services.ErrForbidden, id)
	}

	return intervention, nil
}

// Plan may be repeated to reschedule until work has started.
func (c *InterventionController) Plan(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
	request *PlanRequest,
) (*services.WorkflowResult, error) {
	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":         InterventionStatusPlanned,
		"scheduled_date": request.ScheduledDate.UTC(),
	}
	if request.Technician != nil {
		updates["technician"] = *request.Technician
	}

	err := c.transition(ctx, id, updates, InterventionStatusWaiting, InterventionStatusPlanned)
	if err != nil {
		return nil, err
	}

	return c.workflowService.Dispatch(ctx, services.InterventionPlanned{InterventionID: id}, &user.ID)
}

func (c *InterventionController) Start(ctx context.Context, id uuid.UUID) (*Intervention, error) {
	err := c.transition(ctx, id, map[string]any{
		"status":     InterventionStatusInProgress,
		"start_date": time.Now().UTC(),
	}, InterventionStatusPlanned)
	if err != nil {
		return nil, err
	}

	return c.interventionRepo.GetByID(ctx, c.db.SQL, id)
}

// Complete stores the report notes, then lets the workflow set Terminée and schedule the
// followup. Completing a finished intervention is reported as a duplicate.
func (c *InterventionController) Complete(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
	request *CompleteRequest,
) (*services.WorkflowResult, error) {
	intervention, err := c.interventionRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if request != nil && request.ReportNotes != nil && !intervention.IsFinished() {
		if err := c.interventionRepo.Update(ctx, c.db.SQL, id, map[string]any{
			"report_notes": *request.ReportNotes,
		}); err != nil {
			return nil, err
		}
	}

	return c.workflowService.Dispatch(ctx, services.InterventionCompleted{InterventionID: id}, &user.ID)
}

func (c *InterventionController) Close(ctx context.Context, id uuid.UUID) (*Intervention, error) {
	err := c.transition(ctx, id, map[string]any{
		"status": InterventionStatusClosed,
	}, InterventionStatusCompleted)
	if err != nil {
		return nil, err
	}

	return c.interventionRepo.GetByID(ctx, c.db.SQL, id)
}

func (c *InterventionController) transition(
	ctx context.Context,
	id uuid.UUID,
	updates map[string]any,
	from ...InterventionStatus,
) error {
	log := c.log.Function("transition")

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		intervention, err := c.interventionRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		allowed := false
		for _, status := range from {
			if intervention.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf(
				"%w: intervention %s is %s",
				services.ErrInvalidTransition,
				id,
				intervention.Status,
			)
		}

		return c.interventionRepo.Update(ctx, tx, id, updates)
	})
	if err != nil {
		return err
	}

	log.Info("Intervention updated", "interventionID", id, "status", updates["status"])
	return nil
}
