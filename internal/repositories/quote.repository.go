package repositories

import (
	"context"
	"time"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuoteRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Quote, error)
	Create(ctx context.Context, tx *gorm.DB, quote *Quote) error
	ListByClient(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) ([]*Quote, error)
	List(ctx context.Context, tx *gorm.DB, status QuoteStatus) ([]*Quote, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	// MarkSent moves a quote still open for a client decision to "awaiting client". A
	// validated or rejected quote is left alone and false is returned.
	MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID, sentAt time.Time) (bool, error)
	// MarkValidated flips the quote to Validé unless it already is. It reports whether
	// this call made the change.
	MarkValidated(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
	// MarkRejected only applies while the client decision is still open.
	MarkRejected(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) (bool, error)
	CountByStatus(ctx context.Context, tx *gorm.DB) ([]StatusCount, error)
	AcceptedRevenue(ctx context.Context, tx *gorm.DB) (decimal.Decimal, error)
}

type quoteRepository struct {
	log logger.Logger
}

func NewQuoteRepository() QuoteRepository {
	return &quoteRepository{
		log: logger.New("quoteRepository"),
	}
}

func (r *quoteRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Quote, error) {
	log := r.log.Function("GetByID")

	var quote Quote
	if err := tx.WithContext(ctx).
		Preload("Client").
		Preload("Company").
		Preload("ServiceRequest").
		First(&quote, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "quote", id); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get quote", err, "id", id)
	}

	return &quote, nil
}

func (r *quoteRepository) Create(ctx context.Context, tx *gorm.DB, quote *Quote) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Client", "Company", "ServiceRequest").Create(quote).Error; err != nil {
		return log.Err("failed to create quote", err, "reference", quote.Reference)
	}

	return nil
}

func (r *quoteRepository) ListByClient(
	ctx context.Context,
	tx *gorm.DB,
	clientID uuid.UUID,
) ([]*Quote, error) {
	log := r.log.Function("ListByClient")

	var quotes []*Quote
	if err := tx.WithContext(ctx).
		Preload("ServiceRequest").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&quotes).Error; err != nil {
		return nil, log.Err("failed to list quotes", err, "clientID", clientID)
	}

	return quotes, nil
}

func (r *quoteRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	status QuoteStatus,
) ([]*Quote, error) {
	log := r.log.Function("List")

	query := tx.WithContext(ctx).Preload("Client").Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var quotes []*Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, log.Err("failed to list quotes", err, "status", status)
	}

	return quotes, nil
}

func (r *quoteRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).Model(&Quote{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update quote", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "quote", id)
	}

	return nil
}

func (r *quoteRepository) MarkSent(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	sentAt time.Time,
) (bool, error) {
	log := r.log.Function("MarkSent")

	result := tx.WithContext(ctx).
		Model(&Quote{}).
		Where("id = ? AND status IN ?", id, []QuoteStatus{QuoteStatusPending, QuoteStatusAwaitingClient}).
		Updates(map[string]any{
			"status":  QuoteStatusAwaitingClient,
			"sent_at": sentAt,
		})
	if result.Error != nil {
		return false, log.Err("failed to mark quote sent", result.Error, "id", id)
	}

	return result.RowsAffected > 0, nil
}

func (r *quoteRepository) MarkValidated(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	at time.Time,
) (bool, error) {
	log := r.log.Function("MarkValidated")

	result := tx.WithContext(ctx).
		Model(&Quote{}).
		Where("id = ? AND status <> ?", id, QuoteStatusValidated).
		Updates(map[string]any{
			"status":       QuoteStatusValidated,
			"validated_at": at,
		})
	if result.Error != nil {
		return false, log.Err("failed to validate quote", result.Error, "id", id)
	}

	return result.RowsAffected > 0, nil
}

func (r *quoteRepository) MarkRejected(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	at time.Time,
) (bool, error) {
	log := r.log.Function("MarkRejected")

	result := tx.WithContext(ctx).
		Model(&Quote{}).
		Where("id = ? AND status IN ?", id, []QuoteStatus{QuoteStatusPending, QuoteStatusAwaitingClient}).
		Updates(map[string]any{
			"status":      QuoteStatusRejected,
			"rejected_at": at,
		})
	if result.Error != nil {
		return false, log.Err("failed to reject quote", result.Error, "id", id)
	}

	return result.RowsAffected > 0, nil
}

func (r *quoteRepository) CountByStatus(ctx context.Context, tx *gorm.DB) ([]StatusCount, error) {
	log := r.log.Function("CountByStatus")

	var counts []StatusCount
	if err := tx.WithContext(ctx).
		Model(&Quote{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, log.Err("failed to count quotes", err)
	}

	return counts, nil
}

func (r *quoteRepository) AcceptedRevenue(ctx context.Context, tx *gorm.DB) (decimal.Decimal, error) {
	log := r.log.Function("AcceptedRevenue")

	var total decimal.NullDecimal
	if err := tx.WithContext(ctx).
		Model(&Quote{}).
		Select("SUM(total_ttc)").
		Where("status = ?", QuoteStatusValidated).
		Row().
		Scan(&total); err != nil {
		return decimal.Zero, log.Err("failed to sum accepted quotes", err)
	}

	if !total.Valid {
		return decimal.Zero, nil
	}

	return total.Decimal, nil
}
