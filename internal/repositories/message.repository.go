package repositories

import (
	"context"
	"time"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, tx *gorm.DB, message *Message) error
	ListByServiceRequest(
		ctx context.Context,
		tx *gorm.DB,
		serviceRequestID uuid.UUID,
	) ([]*Message, error)
	// MarkRead stamps every unread message on the request not sent by readerID.
	MarkRead(
		ctx context.Context,
		tx *gorm.DB,
		serviceRequestID uuid.UUID,
		readerID uuid.UUID,
		at time.Time,
	) (int64, error)
}

type messageRepository struct {
	log logger.Logger
}

func NewMessageRepository() MessageRepository {
	return &messageRepository{
		log: logger.New("messageRepository"),
	}
}

func (r *messageRepository) Create(ctx context.Context, tx *gorm.DB, message *Message) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Sender").Create(message).Error; err != nil {
		return log.Err(
			"failed to create message",
			err,
			"serviceRequestID",
			message.ServiceRequestID,
		)
	}

	return nil
}

func (r *messageRepository) ListByServiceRequest(
	ctx context.Context,
	tx *gorm.DB,
	serviceRequestID uuid.UUID,
) ([]*Message, error) {
	log := r.log.Function("ListByServiceRequest")

	var messages []*Message
	if err := tx.WithContext(ctx).
		Preload("Sender").
		Where("service_request_id = ?", serviceRequestID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, log.Err(
			"failed to list messages",
			err,
			"serviceRequestID",
			serviceRequestID,
		)
	}

	return messages, nil
}

func (r *messageRepository) MarkRead(
	ctx context.Context,
	tx *gorm.DB,
	serviceRequestID uuid.UUID,
	readerID uuid.UUID,
	at time.Time,
) (int64, error) {
	log := r.log.Function("MarkRead")

	result := tx.WithContext(ctx).
		Model(&Message{}).
		Where("service_request_id = ? AND sender_id <> ? AND read_at IS NULL", serviceRequestID, readerID).
		Update("read_at", at)
	if result.Error != nil {
		return 0, log.Err("failed to mark messages read", result.Error, "serviceRequestID", serviceRequestID)
	}

	return result.RowsAffected, nil
}
