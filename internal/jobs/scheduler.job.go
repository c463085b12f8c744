package jobs

import (
	"opsflow/config"
	"opsflow/internal/database"
	"opsflow/internal/events"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

const (
	Hourly       = services.Hourly
	DailyMorning = services.DailyMorning
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	db database.DB,
	repos repositories.Repository,
	eventBus *events.EventBus,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	if !config.SchedulerEnabled {
		log.Info("Scheduler disabled, skipping job registration")
		return nil
	}

	log.Info("Registering jobs")

	followupReminderJob := NewFollowupReminderJob(
		repos,
		db,
		services.NewMailProvider(config),
		eventBus,
		config.FollowupReminderEmail,
		DailyMorning,
	)
	if err := schedulerService.AddJob(followupReminderJob); err != nil {
		return log.Err("failed to register followup reminder job", err)
	}
	log.Info("Registered followup reminder job", "schedule", "daily 07:00 UTC")

	return nil
}
