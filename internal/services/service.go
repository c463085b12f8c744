package services

import (
	"context"

	"opsflow/config"
	"opsflow/internal/database"
	"opsflow/internal/events"
	"opsflow/internal/repositories"
)

type Service struct {
	Transaction       *TransactionService
	Scheduler         *SchedulerService
	Notification      *NotificationService
	Storage           *StorageService
	Token             *TokenService
	Workflow          *WorkflowService
	CacheInvalidation *CacheInvalidationService
}

func New(db database.DB, config config.Config, eventBus *events.EventBus) (Service, error) {
	transactionService := NewTransactionService(db)
	repos := repositories.New(db)

	storageService, err := NewStorageService(context.Background(), config)
	if err != nil {
		return Service{}, err
	}

	notificationService := NewNotificationService(NewMailProvider(config))
	schedulerService := NewSchedulerService()
	tokenService := NewTokenService(config)
	workflowService := NewWorkflowService(
		transactionService,
		repos,
		notificationService,
		eventBus,
		storageService,
		config,
	)

	cacheInvalidationService := NewCacheInvalidationService(eventBus, db.Cache.General)
	if err := cacheInvalidationService.Start(); err != nil {
		return Service{}, err
	}

	return Service{
		Transaction:       transactionService,
		Scheduler:         schedulerService,
		Notification:      notificationService,
		Storage:           storageService,
		Token:             tokenService,
		Workflow:          workflowService,
		CacheInvalidation: cacheInvalidationService,
	}, nil
}
