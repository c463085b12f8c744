package serviceRequestController

import (
	"context"
	"fmt"
	"time"

	"opsflow/config"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"
	"opsflow/internal/utils"
	"opsflow/internal/validation"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateServiceRequestRequest struct {
	Title         string     `json:"title"                   validate:"required,max=200"`
	Description   *string    `json:"description,omitempty"`
	ServiceType   string     `json:"serviceType"             validate:"required"`
	Priority      Priority   `json:"priority,omitempty"      validate:"omitempty,oneof=low normal high urgent"`
	RequestedDate *time.Time `json:"requestedDate,omitempty"`
}

type UpdateStatusRequest struct {
	Status ServiceRequestStatus `json:"status" validate:"required"`
}

type ScheduleRequest struct {
	ScheduledDate time.Time `json:"scheduledDate" validate:"required"`
}

type ServiceRequestControllerInterface interface {
	Create(ctx context.Context, user *Profile, request *CreateServiceRequestRequest) (*ServiceRequest, error)
	ListOwn(ctx context.Context, user *Profile) ([]*ServiceRequest, error)
	List(ctx context.Context, status ServiceRequestStatus) ([]*ServiceRequest, error)
	Get(ctx context.Context, user *Profile, id uuid.UUID) (*ServiceRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, request *UpdateStatusRequest) (*ServiceRequest, error)
	Schedule(ctx context.Context, id uuid.UUID, request *ScheduleRequest) (*ServiceRequest, error)
}

type ServiceRequestController struct {
	serviceRequestRepo repositories.ServiceRequestRepository
	transactionService *services.TransactionService
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
) ServiceRequestControllerInterface {
	return &ServiceRequestController{
		serviceRequestRepo: repos.ServiceRequest,
		transactionService: services.Transaction,
		validator:          validation.New(),
		db:                 db,
		Config:             config,
		log:                logger.New("serviceRequestController"),
	}
}

func (c *ServiceRequestController) Create(
	ctx context.Context,
	user *Profile,
	request *CreateServiceRequestRequest,
) (*ServiceRequest, error) {
	log := c.log.Function("Create")

	request.Title, _ = utils.CleanText(request.Title)
	request.Description = utils.CleanOptionalText(request.Description)
	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	serviceRequest := &ServiceRequest{
		CompanyID:     user.CompanyID,
		ClientID:      user.ID,
		Title:         request.Title,
		Description:   request.Description,
		ServiceType:   request.ServiceType,
		Priority:      request.Priority,
		Status:        ServiceRequestStatusPending,
		RequestedDate: request.RequestedDate,
	}

	if err := c.serviceRequestRepo.Create(ctx, c.db.SQL, serviceRequest); err != nil {
		return nil, log.Err("failed to create service request", err, "clientID", user.ID)
	}

	log.Info("Service request created", "requestID", serviceRequest.ID, "clientID", user.ID)
	return serviceRequest, nil
}

func (c *ServiceRequestController) ListOwn(ctx context.Context, user *Profile) ([]*ServiceRequest, error) {
	return c.serviceRequestRepo.ListByClient(ctx, c.db.SQL, user.ID)
}

func (c *ServiceRequestController) List(
	ctx context.Context,
	status ServiceRequestStatus,
) ([]*ServiceRequest, error) {
	return c.serviceRequestRepo.List(ctx, c.db.SQL, status)
}

func (c *ServiceRequestController) Get(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
) (*ServiceRequest, error) {
	serviceRequest, err := c.serviceRequestRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin() && serviceRequest.ClientID != user.ID {
		return nil, fmt.Errorf("%w: service request %s", services.ErrForbidden, id)
	}

	return serviceRequest, nil
}

// UpdateStatus enforces the transition table, then writes conditionally on the status it
// read so a concurrent change surfaces as ErrInvalidTransition.
func (c *ServiceRequestController) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	request *UpdateStatusRequest,
) (*ServiceRequest, error) {
	log := c.log.Function("UpdateStatus")

	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	var updated *ServiceRequest
	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		serviceRequest, err := c.serviceRequestRepo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}

		if !serviceRequest.CanTransitionTo(request.Status) {
			return fmt.Errorf(
				"%w: %s to %s",
				services.ErrInvalidTransition,
				serviceRequest.Status,
				request.Status,
			)
		}

		updates := map[string]any{"status": request.Status}
		if request.Status == ServiceRequestStatusCompleted {
			updates["completed_date"] = time.Now().UTC()
		}

		changed, err := c.serviceRequestRepo.UpdateStatus(ctx, tx, id, serviceRequest.Status, updates)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: service request %s changed concurrently", services.ErrInvalidTransition, id)
		}

		updated, err = c.serviceRequestRepo.GetByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("Service request status updated", "requestID", id, "status", updated.Status)
	return updated, nil
}

func (c *ServiceRequestController) Schedule(
	ctx context.Context,
	id uuid.UUID,
	request *ScheduleRequest,
) (*ServiceRequest, error) {
	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	if err := c.serviceRequestRepo.Update(ctx, c.db.SQL, id, map[string]any{
		"scheduled_date": request.ScheduledDate.UTC(),
	}); err != nil {
		return nil, err
	}

	return c.serviceRequestRepo.GetByID(ctx, c.db.SQL, id)
}
