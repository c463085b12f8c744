package middleware

import (
	"opsflow/config"
	"opsflow/internal/database"
	"opsflow/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB          database.DB
	profileRepo repositories.ProfileRepository
	Config      config.Config
	log         logger.Logger
}

func New(
	db database.DB,
	config config.Config,
	repos repositories.Repository,
) Middleware {
	return Middleware{
		DB:          db,
		profileRepo: repos.Profile,
		Config:      config,
		log:         logger.New("middleware"),
	}
}
