package repositories

import (
	"context"

	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRequestRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*ServiceRequest, error)
	Create(ctx context.Context, tx *gorm.DB, request *ServiceRequest) error
	ListByClient(ctx context.Context, tx *gorm.DB, clientID uuid.UUID) ([]*ServiceRequest, error)
	List(ctx context.Context, tx *gorm.DB, status ServiceRequestStatus) ([]*ServiceRequest, error)
	// UpdateStatus only writes when the row is still in status from, so two admins racing
	// on the same request cannot both advance it.
	UpdateStatus(
		ctx context.Context,
		tx *gorm.DB,
		id uuid.UUID,
		from ServiceRequestStatus,
		updates map[string]any,
	) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	CountByStatus(ctx context.Context, tx *gorm.DB) ([]StatusCount, error)
}

type serviceRequestRepository struct {
	log logger.Logger
}

func NewServiceRequestRepository() ServiceRequestRepository {
	return &serviceRequestRepository{
		log: logger.New("serviceRequestRepository"),
	}
}

func (r *serviceRequestRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*ServiceRequest, error) {
	log := r.log.Function("GetByID")

	var request ServiceRequest
	if err := tx.WithContext(ctx).
		Preload("Client").
		Preload("Company").
		First(&request, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "service request", id); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get service request", err, "id", id)
	}

	return &request, nil
}

func (r *serviceRequestRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	request *ServiceRequest,
) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(request).Error; err != nil {
		return log.Err("failed to create service request", err, "clientID", request.ClientID)
	}

	return nil
}

func (r *serviceRequestRepository) ListByClient(
	ctx context.Context,
	tx *gorm.DB,
	clientID uuid.UUID,
) ([]*ServiceRequest, error) {
	log := r.log.Function("ListByClient")

	var requests []*ServiceRequest
	if err := tx.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list service requests", err, "clientID", clientID)
	}

	return requests, nil
}

func (r *serviceRequestRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	status ServiceRequestStatus,
) ([]*ServiceRequest, error) {
	log := r.log.Function("List")

	query := tx.WithContext(ctx).Preload("Client").Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []*ServiceRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, log.Err("failed to list service requests", err, "status", status)
	}

	return requests, nil
}

func (r *serviceRequestRepository) UpdateStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	from ServiceRequestStatus,
	updates map[string]any,
) (bool, error) {
	log := r.log.Function("UpdateStatus")

	result := tx.WithContext(ctx).
		Model(&ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, log.Err("failed to update service request status", result.Error, "id", id)
	}

	return result.RowsAffected > 0, nil
}

func (r *serviceRequestRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).Model(&ServiceRequest{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update service request", result.Error, "id", id)
	}

	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "service request", id)
	}

	return nil
}

func (r *serviceRequestRepository) CountByStatus(
	ctx context.Context,
	tx *gorm.DB,
) ([]StatusCount, error) {
	log := r.log.Function("CountByStatus")

	var counts []StatusCount
	if err := tx.WithContext(ctx).
		Model(&ServiceRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, log.Err("failed to count service requests", err)
	}

	return counts, nil
}
