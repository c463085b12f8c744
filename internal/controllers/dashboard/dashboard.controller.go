package dashboardController

import (
	"context"
	"fmt"
	"time"

	"opsflow/config"
	"opsflow/internal/constants"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	ServiceRequests  []repositories.StatusCount `json:"serviceRequests"`
	Quotes           []repositories.StatusCount `json:"quotes"`
	Interventions    []repositories.StatusCount `json:"interventions"`
	PendingFollowups int64                      `json:"pendingFollowups"`
	AcceptedRevenue  decimal.Decimal            `json:"acceptedRevenue"`
	GeneratedAt      time.Time                  `json:"generatedAt"`
}

type DashboardControllerInterface interface {
	Stats(ctx context.Context) (*Stats, error)
	WorkflowLogs(ctx context.Context, entityType EntityType, entityID uuid.UUID) ([]*WorkflowLog, error)
	RecentWorkflowLogs(ctx context.Context, limit int) ([]*WorkflowLog, error)
}

type DashboardController struct {
	repos  repositories.Repository
	cache  database.CacheClient
	db     database.DB
	Config config.Config
	log    logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) DashboardControllerInterface {
	return &DashboardController{
		repos:  repos,
		cache:  db.Cache.General,
		db:     db,
		Config: config,
		log:    logger.New("dashboardController"),
	}
}

// Stats gathers the aggregates concurrently and caches the result briefly in the general
// index. Workflow events invalidate the cached copy.
func (c *DashboardController) Stats(ctx context.Context) (*Stats, error) {
	log := c.log.Function("Stats")

	var cached Stats
	found, err := database.NewCacheBuilder(c.cache, constants.DashboardStatsCacheKey).
		WithContext(ctx).
		WithHash(constants.DashboardCachePrefix).
		Get(&cached)
	if err != nil && err != database.ErrCacheUnavailable {
		log.Warn("failed to read dashboard stats from cache", "error", err)
	}
	if found {
		return &cached, nil
	}

	stats := Stats{GeneratedAt: time.Now().UTC()}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() (err error) {
		stats.ServiceRequests, err = c.repos.ServiceRequest.CountByStatus(groupCtx, c.db.SQL)
		return err
	})
	group.Go(func() (err error) {
		stats.Quotes, err = c.repos.Quote.CountByStatus(groupCtx, c.db.SQL)
		return err
	})
	group.Go(func() (err error) {
		stats.Interventions, err = c.repos.Intervention.CountByStatus(groupCtx, c.db.SQL)
		return err
	})
	group.Go(func() (err error) {
		stats.PendingFollowups, err = c.repos.Followup.CountPending(groupCtx, c.db.SQL)
		return err
	})
	group.Go(func() (err error) {
		stats.AcceptedRevenue, err = c.repos.Quote.AcceptedRevenue(groupCtx, c.db.SQL)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, log.Err("failed to gather dashboard stats", err)
	}

	err = database.NewCacheBuilder(c.cache, constants.DashboardStatsCacheKey).
		WithContext(ctx).
		WithHash(constants.DashboardCachePrefix).
		WithStruct(stats).
		WithTTL(constants.DashboardStatsCacheExpiry).
		Set()
	if err != nil && err != database.ErrCacheUnavailable {
		log.Warn("failed to cache dashboard stats", "error", err)
	}

	return &stats, nil
}

func (c *DashboardController) WorkflowLogs(
	ctx context.Context,
	entityType EntityType,
	entityID uuid.UUID,
) ([]*WorkflowLog, error) {
	switch entityType {
	case EntityTypeQuote, EntityTypeIntervention, EntityTypeAudit:
	default:
		return nil, fmt.Errorf("%w: entity_type %q", services.ErrInvalidField, entityType)
	}

	return c.repos.WorkflowLog.ListByEntity(ctx, c.db.SQL, entityType, entityID)
}

func (c *DashboardController) RecentWorkflowLogs(ctx context.Context, limit int) ([]*WorkflowLog, error) {
	return c.repos.WorkflowLog.ListRecent(ctx, c.db.SQL, limit)
}
