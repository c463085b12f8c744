package repositories

import (
	"context"
	"time"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterventionRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Intervention, error)
	GetByQuoteID(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (*Intervention, error)
	// CreateForQuote inserts the intervention unless one already exists for its quote. On
	// conflict the existing row is loaded into intervention and created is false.
	CreateForQuote(ctx context.Context, tx *gorm.DB, intervention *Intervention) (bool, error)
	ListByClient(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) ([]*Intervention, error)
	List(ctx context.Context, tx *gorm.DB, status InterventionStatus) ([]*Intervention, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	// MarkCompleted sets Terminée and the end date unless the intervention is already
	// finished. It reports whether this call made the change.
	MarkCompleted(ctx context.Context, tx *gorm.DB, id uuid.UUID, endDate time.Time) (bool, error)
	CountByStatus(ctx context.Context, tx *gorm.DB) ([]StatusCount, error)
}

type interventionRepository struct {
	log logger.Logger
}

func NewInterventionRepository() InterventionRepository {
	return &interventionRepository{
		log: logger.New("interventionRepository"),
	}
}

func (r *interventionRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Intervention, error) {
	log := r.log.Function("GetByID")

	var intervention Intervention
	if err := tx.WithContext(ctx).
		Preload("Client").
		Preload("ServiceRequest").
		First(&intervention, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "intervention", id); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get intervention", err, "id", id)
	}

	return &intervention, nil
}

func (r *interventionRepository) GetByQuoteID(
	ctx context.Context,
	tx *gorm.DB,
	quoteID uuid.UUID,
) (*Intervention, error) {
	log := r.log.Function("GetByQuoteID")

	var intervention Intervention
	if err := tx.WithContext(ctx).First(&intervention, "quote_id = ?", quoteID).Error; err != nil {
		if nf := notFound(err, "intervention for quote", quoteID); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get intervention by quote", err, "quoteID", quoteID)
	}

	return &intervention, nil
}

func (r *interventionRepository) CreateForQuote(
	ctx context.Context,
	tx *gorm.DB,
	intervention *Intervention,
) (bool, error) {
	log := r.log.Function("CreateForQuote")

	result := tx.WithContext(ctx).
		Omit("Quote", "ServiceRequest", "Client").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "quote_id"}},
			DoNothing: true,
		}).
		Create(intervention)
	if result.Error != nil {
		return false, log.Err(
			"failed to create intervention",
			result.Error,
			"quoteID",
			intervention.QuoteID,
		)
	}

	if result.RowsAffected > 0 {
		return true, nil
	}

	existing, err := r.GetByQuoteID(ctx, tx, intervention.QuoteID)
	if err != nil {
		return false, err
	}

	*intervention = *existing
	return false, nil
}

func (r *interventionRepository) ListByClient(
	ctx context.Context,
	tx *gorm.DB,
	clientID uuid.UUID,
) ([]*Intervention, error) {
	log := r.log.Function("ListByClient")

	var interventions []*Intervention
	if err := tx.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&interventions).Error; err != nil {
		return nil, log.Err("failed to list interventions", err, "clientID", clientID)
	}

	return interventions, nil
}

func (r *interventionRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	status InterventionStatus,
) ([]*Intervention, error) {
	log := r.log.Function("List")

	query := tx.WithContext(ctx).Preload("Client").Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var interventions []*Intervention
	if err := query.Find(&interventions).Error; err != nil {
		return nil, log.Err("failed to list interventions", err, "status", status)
	}

	return interventions, nil
}

func (r *interventionRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).Model(&Intervention{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update intervention", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "intervention", id)
	}

	return nil
}

func (r *interventionRepository) MarkCompleted(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	endDate time.Time,
) (bool, error) {
	log := r.log.Function("MarkCompleted")

	result := tx.WithContext(ctx).
		Model(&Intervention{}).
		Where("id = ? AND status NOT IN ?", id, []InterventionStatus{
			InterventionStatusCompleted,
			InterventionStatusClosed,
		}).
		Updates(map[string]any{
			"status":   InterventionStatusCompleted,
			"end_date": endDate,
		})
	if result.Error != nil {
		return false, log.Err("failed to complete intervention", result.Error, "id", id)
	}

	return result.RowsAffected > 0, nil
}

func (r *interventionRepository) CountByStatus(
	ctx context.Context,
	tx *gorm.DB,
) ([]StatusCount, error) {
	log := r.log.Function("CountByStatus")

	var counts []StatusCount
	if err := tx.WithContext(ctx).
		Model(&Intervention{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, log.Err("failed to count interventions", err)
	}

	return counts, nil
}
