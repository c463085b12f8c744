package repositories

import (
	"context"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Company, error)
	Create(ctx context.Context, tx *gorm.DB, company *Company) error
	List(ctx context.Context, tx *gorm.DB) ([]*Company, error)
}

type companyRepository struct {
	log logger.Logger
}

func NewCompanyRepository() CompanyRepository {
	return &companyRepository{
		log: logger.New("companyRepository"),
	}
}

func (r *companyRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Company, error) {
	log := r.log.Function("GetByID")

	var company Company
	if err := tx.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "company", id); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get company", err, "id", id)
	}

	return &company, nil
}

func (r *companyRepository) Create(ctx context.Context, tx *gorm.DB, company *Company) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(company).Error; err != nil {
		return log.Err("failed to create company", err, "name", company.Name)
	}

	return nil
}

func (r *companyRepository) List(ctx context.Context, tx *gorm.DB) ([]*Company, error) {
	log := r.log.Function("List")

	var companies []*Company
	if err := tx.WithContext(ctx).Order("name ASC").Find(&companies).Error; err != nil {
		return nil, log.Err("failed to list companies", err)
	}

	return companies, nil
}
