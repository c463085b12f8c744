package followupController

import (
	"context"
	"time"

	"opsflow/config"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

type MarkDoneRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type FollowupControllerInterface interface {
	ListDue(ctx context.Context, cutoff time.Time) ([]*Followup, error)
	MarkDone(ctx context.Context, user *Profile, id uuid.UUID, request *MarkDoneRequest) error
}

type FollowupController struct {
	followupRepo      repositories.FollowupRepository
	cacheInvalidation *services.CacheInvalidationService
	db                database.DB
	Config            config.Config
	log               logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) FollowupControllerInterface {
	return &FollowupController{
		followupRepo:      repos.Followup,
		cacheInvalidation: services.CacheInvalidation,
		db:                db,
		Config:            config,
		log:               logger.New("followupController"),
	}
}

// ListDue returns pending followups due at or before cutoff. A zero cutoff means now.
func (c *FollowupController) ListDue(ctx context.Context, cutoff time.Time) ([]*Followup, error) {
	if cutoff.IsZero() {
		cutoff = time.Now().UTC()
	}
	return c.followupRepo.ListDue(ctx, c.db.SQL, cutoff)
}

func (c *FollowupController) MarkDone(
	ctx context.Context,
	user *Profile,
	id uuid.UUID,
	request *MarkDoneRequest,
) error {
	log := c.log.Function("MarkDone")

	var notes *string
	if request != nil {
		notes = request.Notes
	}

	if err := c.followupRepo.MarkDone(ctx, c.db.SQL, id, notes); err != nil {
		return err
	}

	if c.cacheInvalidation != nil {
		if err := c.cacheInvalidation.InvalidateDashboard(); err != nil {
			log.Warn("dashboard cache not invalidated", "error", err)
		}
	}

	log.Info("Followup marked done", "followupID", id, "by", user.ID)
	return nil
}
