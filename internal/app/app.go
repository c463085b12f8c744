package app

import (
	"context"

	"opsflow/config"
	"opsflow/internal/controllers"
	"opsflow/internal/database"
	"opsflow/internal/events"
	"opsflow/internal/handlers/middleware"
	"opsflow/internal/jobs"
	"opsflow/internal/repositories"
	"opsflow/internal/services"
	"opsflow/internal/websockets"

	logger "github.com/Bparsons0904/goLogger"
)

type App struct {
	Database     database.DB
	Middleware   middleware.Middleware
	Websocket    *websockets.Manager
	EventBus     *events.EventBus
	Config       config.Config
	Services     services.Service
	Repositories repositories.Repository
	Controllers  controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.New()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events)

	services, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	repos := repositories.New(db)
	controllers := controllers.New(services, repos, config, db)
	middleware := middleware.New(db, config, repos)

	websocket, err := websockets.New(db, eventBus, services.Token, repos.Profile, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	if err := jobs.RegisterAllJobs(services.Scheduler, config, db, repos, eventBus); err != nil {
		return &App{}, log.Err("failed to register jobs", err)
	}

	if err := services.Scheduler.Start(context.Background()); err != nil {
		return &App{}, log.Err("failed to start scheduler", err)
	}

	app := &App{
		Database:     db,
		Config:       config,
		Middleware:   middleware,
		Websocket:    websocket,
		EventBus:     eventBus,
		Services:     services,
		Repositories: repos,
		Controllers:  controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := map[string]bool{
		"websocket":   a.Websocket == nil,
		"eventBus":    a.EventBus == nil,
		"transaction": a.Services.Transaction == nil,
		"scheduler":   a.Services.Scheduler == nil,
		"token":       a.Services.Token == nil,
		"workflow":    a.Services.Workflow == nil,
		"storage":     a.Services.Storage == nil,
		"profileRepo": a.Repositories.Profile == nil,
		"quoteCtl":    a.Controllers.Quote == nil,
	}

	for name, isNil := range nilChecks {
		if isNil {
			return log.Error("nil check failed", "component", name)
		}
	}

	return nil
}

// Close stops background work before releasing connections.
func (a *App) Close() (err error) {
	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Storage != nil {
		if closeErr := a.Services.Storage.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
