package repositories

import (
	"context"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Audit, error)
	Create(ctx context.Context, tx *gorm.DB, audit *Audit) error
	ListByClient(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) ([]*Audit, error)
	List(ctx context.Context, tx *gorm.DB) ([]*Audit, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
}

type auditRepository struct {
	log logger.Logger
}

func NewAuditRepository() AuditRepository {
	return &auditRepository{
		log: logger.New("auditRepository"),
	}
}

func (r *auditRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Audit, error) {
	log := r.log.Function("GetByID")

	var audit Audit
	if err := tx.WithContext(ctx).
		Preload("Client").
		Preload("Company").
		First(&audit, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "audit", id); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get audit", err, "id", id)
	}

	return &audit, nil
}

func (r *auditRepository) Create(ctx context.Context, tx *gorm.DB, audit *Audit) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Omit("Client", "Company").Create(audit).Error; err != nil {
		return log.Err("failed to create audit", err, "clientID", audit.ClientID)
	}

	return nil
}

func (r *auditRepository) ListByClient(
	ctx context.Context,
	tx *gorm.DB,
	clientID uuid.UUID,
) ([]*Audit, error) {
	log := r.log.Function("ListByClient")

	var audits []*Audit
	if err := tx.WithContext(ctx).
		Omit("generated_report").
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&audits).Error; err != nil {
		return nil, log.Err("failed to list audits", err, "clientID", clientID)
	}

	return audits, nil
}

func (r *auditRepository) List(ctx context.Context, tx *gorm.DB) ([]*Audit, error) {
	log := r.log.Function("List")

	var audits []*Audit
	if err := tx.WithContext(ctx).
		Omit("generated_report").
		Preload("Client").
		Order("created_at DESC").
		Find(&audits).Error; err != nil {
		return nil, log.Err("failed to list audits", err)
	}

	return audits, nil
}

func (r *auditRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).Model(&Audit{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update audit", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "audit", id)
	}

	return nil
}
