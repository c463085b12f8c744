package services

import (
	"opsflow/internal/constants"
	"opsflow/internal/database"
	"opsflow/internal/events"

	logger "github.com/Bparsons0904/goLogger"
)

// CacheInvalidationService drops cached dashboard aggregates whenever a workflow event
// changes the counts behind them.
type CacheInvalidationService struct {
	eventBus *events.EventBus
	cache    database.CacheClient
	log      logger.Logger
}

func NewCacheInvalidationService(
	eventBus *events.EventBus,
	cache database.CacheClient,
) *CacheInvalidationService {
	return &CacheInvalidationService{
		eventBus: eventBus,
		cache:    cache,
		log:      logger.New("CacheInvalidationService"),
	}
}

func (s *CacheInvalidationService) Start() error {
	log := s.log.Function("Start")

	if err := s.eventBus.Subscribe(events.WORKFLOW_CHANNEL, s.handleWorkflowEvent); err != nil {
		return log.Err("failed to subscribe to workflow channel", err)
	}
	if err := s.eventBus.Subscribe(events.FOLLOWUP_CHANNEL, s.handleWorkflowEvent); err != nil {
		return log.Err("failed to subscribe to followup channel", err)
	}

	return nil
}

func (s *CacheInvalidationService) handleWorkflowEvent(event events.Event) error {
	return s.InvalidateDashboard()
}

func (s *CacheInvalidationService) InvalidateDashboard() error {
	err := database.NewCacheBuilder(s.cache, constants.DashboardStatsCacheKey).
		WithHash(constants.DashboardCachePrefix).
		Delete()
	if err == database.ErrCacheUnavailable {
		return nil
	}
	if err != nil {
		return s.log.Function("InvalidateDashboard").Err("failed to invalidate dashboard stats", err)
	}

	return nil
}
