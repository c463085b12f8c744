package repositories

import (
	"context"
	"time"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FollowupRepository interface {
	Create(ctx context.Context, tx *gorm.DB, followup *Followup) error
	ListByIntervention(ctx context.Context, tx *gorm.DB, interventionID uuid.UUID) ([]*Followup, error)
	// ListDue returns pending followups whose next action date is at or before cutoff.
	ListDue(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*Followup, error)
	MarkDone(ctx context.Context, tx *gorm.DB, id uuid.UUID, notes *string) error
	MarkReminded(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	CountPending(ctx context.Context, tx *gorm.DB) (int64, error)
}

type followupRepository struct {
	log logger.Logger
}

func NewFollowupRepository() FollowupRepository {
	return &followupRepository{
		log: logger.New("followupRepository"),
	}
}

func (r *followupRepository) Create(ctx context.Context, tx *gorm.DB, followup *Followup) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Intervention").Create(followup).Error; err != nil {
		return log.Err(
			"failed to create followup",
			err,
			"interventionID",
			followup.InterventionID,
		)
	}

	return nil
}

func (r *followupRepository) ListByIntervention(
	ctx context.Context,
	tx *gorm.DB,
	interventionID uuid.UUID,
) ([]*Followup, error) {
	log := r.log.Function("ListByIntervention")

	var followups []*Followup
	if err := tx.WithContext(ctx).
		Where("intervention_id = ?", interventionID).
		Order("next_action_date ASC").
		Find(&followups).Error; err != nil {
		return nil, log.Err("failed to list followups", err, "interventionID", interventionID)
	}

	return followups, nil
}

func (r *followupRepository) ListDue(
	ctx context.Context,
	tx *gorm.DB,
	cutoff time.Time,
) ([]*Followup, error) {
	log := r.log.Function("ListDue")

	var followups []*Followup
	if err := tx.WithContext(ctx).
		Preload("Intervention").
		Where("status = ? AND next_action_date <= ?", FollowupStatusPending, cutoff).
		Order("next_action_date ASC").
		Find(&followups).Error; err != nil {
		return nil, log.Err("failed to list due followups", err, "cutoff", cutoff)
	}

	return followups, nil
}

func (r *followupRepository) MarkDone(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	notes *string,
) error {
	log := r.log.Function("MarkDone")

	updates := map[string]any{"status": FollowupStatusDone}
	if notes != nil {
		updates["notes"] = *notes
	}

	result := tx.WithContext(ctx).Model(&Followup{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to mark followup done", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "followup", id)
	}

	return nil
}

func (r *followupRepository) MarkReminded(
	ctx context.Context,
	tx *gorm.DB,
	ids []uuid.UUID,
	at time.Time,
) error {
	log := r.log.Function("MarkReminded")

	if len(ids) == 0 {
		return nil
	}

	if err := tx.WithContext(ctx).
		Model(&Followup{}).
		Where("id IN ?", ids).
		Update("reminded_at", at).Error; err != nil {
		return log.Err("failed to mark followups reminded", err, "count", len(ids))
	}

	return nil
}

func (r *followupRepository) CountPending(ctx context.Context, tx *gorm.DB) (int64, error) {
	log := r.log.Function("CountPending")

	var count int64
	if err := tx.WithContext(ctx).
		Model(&Followup{}).
		Where("status = ?", FollowupStatusPending).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count pending followups", err)
	}

	return count, nil
}
