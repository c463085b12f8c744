package messageController

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
)

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type MessageControllerInterface interface {
	List(ctx context.Context, user *Profile, serviceRequestID uuid.UUID) ([]*Message, error)
	Send(
		ctx context.Context,
		user *Profile,
		serviceRequestID uuid.UUID,
		request *SendMessageRequest,
	) (*Message, error)
}

type MessageController struct {
	messageRepo        repositories.MessageRepository
	serviceRequestRepo repositories.ServiceRequestRepository
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
) MessageControllerInterface {
	return &MessageController{
		messageRepo:        repos.Message,
		serviceRequestRepo: repos.ServiceRequest,
		validator:          validation.New(),
		db:                 db,
		Config:             config,
		log:                logger.New("messageController"),
	}
}

// List returns the thread and marks the other party's messages as read.
func (c *MessageController) List(
	ctx context.Context,
	user *Profile,
	serviceRequestID uuid.UUID,
) ([]*Message, error) {
	log := c.log.Function("List")

	if err := c.authorize(ctx, user, serviceRequestID); err != nil {
		return nil, err
	}

	messages, err := c.messageRepo.ListByServiceRequest(ctx, c.db.SQL, serviceRequestID)
	if err != nil {
		return nil, err
	}

	if _, err := c.messageRepo.MarkRead(ctx, c.db.SQL, serviceRequestID, user.ID, time.Now().UTC()); err != nil {
		log.Warn("failed to mark messages read", "serviceRequestID", serviceRequestID, "error", err)
	}

	return messages, nil
}

func (c *MessageController) Send(
	ctx context.Context,
	user *Profile,
	serviceRequestID uuid.UUID,
	request *SendMessageRequest,
) (*Message, error) {
	log := c.log.Function("Send")

	request.Body, _ = utils.CleanText(request.Body)
	if err := c.validator.Validate(request); err != nil {
		return nil, err
	}

	if err := c.authorize(ctx, user, serviceRequestID); err != nil {
		return nil, err
	}

	message := &Message{
		ServiceRequestID: serviceRequestID,
		SenderID:         user.ID,
		Body:             request.Body,
	}
	if err := c.messageRepo.Create(ctx, c.db.SQL, message); err != nil {
		return nil, log.Err("failed to send message", err, "serviceRequestID", serviceRequestID)
	}

	return message, nil
}

func (c *MessageController) authorize(ctx context.Context, user *Profile, serviceRequestID uuid.UUID) error {
	serviceRequest, err := c.serviceRequestRepo.GetByID(ctx, c.db.SQL, serviceRequestID)
	if err != nil {
		return err
	}

	if !user.IsAdmin() && serviceRequest.ClientID != user.ID {
		return fmt.Errorf("%w: service request %s", services.ErrForbidden, serviceRequestID)
	}

	return nil
}
