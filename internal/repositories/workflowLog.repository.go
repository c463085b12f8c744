package repositories

import (
	"context"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkflowLogRepository only appends and reads. Rows are never updated or deleted.
type WorkflowLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, entry *WorkflowLog) error
	ListByEntity(
		ctx context.Context,
		tx *gorm.DB,
		entityType EntityType,
		entityID uuid.UUID,
	) ([]*WorkflowLog, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*WorkflowLog, error)
}

type workflowLogRepository struct {
	log logger.Logger
}

func NewWorkflowLogRepository() WorkflowLogRepository {
	return &workflowLogRepository{
		log: logger.New("workflowLogRepository"),
	}
}

func (r *workflowLogRepository) Create(ctx context.Context, tx *gorm.DB, entry *WorkflowLog) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(entry).Error; err != nil {
		return log.Err(
			"failed to append workflow log",
			err,
			"entityType",
			entry.EntityType,
			"entityID",
			entry.EntityID,
			"action",
			entry.Action,
		)
	}

	return nil
}

func (r *workflowLogRepository) ListByEntity(
	ctx context.Context,
	tx *gorm.DB,
	entityType EntityType,
	entityID uuid.UUID,
) ([]*WorkflowLog, error) {
	log := r.log.Function("ListByEntity")

	var entries []*WorkflowLog
	if err := tx.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, log.Err(
			"failed to list workflow logs",
			err,
			"entityType",
			entityType,
			"entityID",
			entityID,
		)
	}

	return entries, nil
}

func (r *workflowLogRepository) ListRecent(
	ctx context.Context,
	tx *gorm.DB,
	limit int,
) ([]*WorkflowLog, error) {
	log := r.log.Function("ListRecent")

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []*WorkflowLog
	if err := tx.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, log.Err("failed to list recent workflow logs", err)
	}

	return entries, nil
}
