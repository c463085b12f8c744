package repositories

import (
	"context"

	"opsflow/internal/constants"
	"opsflow/internal/database"
	. "opsflow/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Profile, error)
	Create(ctx context.Context, tx *gorm.DB, profile *Profile) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	ListAdmins(ctx context.Context, tx *gorm.DB) ([]*Profile, error)
}

type profileRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewProfileRepository(cache database.CacheClient) ProfileRepository {
	return &profileRepository{
		cache: cache,
		log:   logger.New("profileRepository"),
	}
}

// GetByID is on the hot path of every authenticated request, so the row is cached in the
// profile index. A cache outage falls through to the database.
func (r *profileRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Profile, error) {
	log := r.log.Function("GetByID")

	var cached Profile
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.ProfileCachePrefix).
		Get(&cached)
	if err != nil && err != database.ErrCacheUnavailable {
		log.Warn("failed to get profile from cache", "profileID", id, "error", err)
	}

	if found {
		return &cached, nil
	}

	var profile Profile
	if err := tx.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "profile", id); nf != nil {
			return nil, nf
		}
		return nil, log.Err("failed to get profile", err, "profileID", id)
	}

	err = database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.ProfileCachePrefix).
		WithStruct(profile).
		WithTTL(constants.ProfileCacheExpiry).
		Set()
	if err != nil && err != database.ErrCacheUnavailable {
		log.Warn("failed to set profile in cache", "profileID", id, "error", err)
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, tx *gorm.DB, profile *Profile) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(profile).Error; err != nil {
		return log.Err("failed to create profile", err, "profileID", profile.ID)
	}

	return nil
}

func (r *profileRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	updates map[string]any,
) error {
	log := r.log.Function("Update")

	result := tx.WithContext(ctx).Model(&Profile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return log.Err("failed to update profile", result.Error, "profileID", id)
	}

	if result.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "profile", id)
	}

	r.clearProfileCache(ctx, id)

	return nil
}

func (r *profileRepository) ListAdmins(ctx context.Context, tx *gorm.DB) ([]*Profile, error) {
	log := r.log.Function("ListAdmins")

	var admins []*Profile
	if err := tx.WithContext(ctx).
		Where("role = ?", RoleAdmin).
		Order("full_name ASC").
		Find(&admins).Error; err != nil {
		return nil, log.Err("failed to list admin profiles", err)
	}

	return admins, nil
}

func (r *profileRepository) clearProfileCache(ctx context.Context, id uuid.UUID) {
	err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(constants.ProfileCachePrefix).
		Delete()
	if err != nil && err != database.ErrCacheUnavailable {
		r.log.Warn("failed to clear profile cache", "profileID", id, "error", err)
	}
}
