package config

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion        string `mapstructure:"GENERAL_VERSION"`
	Environment           string `mapstructure:"ENVIRONMENT"`
	ServerPort            int    `mapstructure:"SERVER_PORT"`
	AppBaseURL            string `mapstructure:"APP_BASE_URL"`
	DatabaseHost          string `mapstructure:"DB_HOST"`
	DatabasePort          int    `mapstructure:"DB_PORT"`
	DatabaseName          string `mapstructure:"DB_NAME"`
	DatabaseUser          string `mapstructure:"DB_USER"`
	DatabasePassword      string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress  string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort     int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset    int    `mapstructure:"DB_CACHE_RESET"`
	CorsAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTIssuer             string `mapstructure:"JWT_ISSUER"`
	MailProvider          string `mapstructure:"MAIL_PROVIDER"`
	MailFrom              string `mapstructure:"MAIL_FROM"`
	ResendAPIKey          string `mapstructure:"RESEND_API_KEY"`
	SMTPHost              string `mapstructure:"SMTP_HOST"`
	SMTPPort              int    `mapstructure:"SMTP_PORT"`
	SMTPUsername          string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword          string `mapstructure:"SMTP_PASSWORD"`
	StorageProjectID      string `mapstructure:"STORAGE_PROJECT_ID"`
	StorageCredentials    string `mapstructure:"STORAGE_CREDENTIALS_FILE"`
	StoragePublicBaseURL  string `mapstructure:"STORAGE_PUBLIC_BASE_URL"`
	QuotesBucket          string `mapstructure:"QUOTES_BUCKET"`
	ReportsBucket         string `mapstructure:"REPORTS_BUCKET"`
	SchedulerEnabled      bool   `mapstructure:"SCHEDULER_ENABLED"`
	FollowupReminderEmail string `mapstructure:"FOLLOWUP_REMINDER_EMAIL"`
}

const (
	MailProviderResend = "resend"
	MailProviderSMTP   = "smtp"
	MailProviderLog    = "log"
)

var ConfigInstance Config

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "APP_BASE_URL",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
	"CORS_ALLOW_ORIGINS",
	"JWT_SECRET", "JWT_ISSUER",
	"MAIL_PROVIDER", "MAIL_FROM", "RESEND_API_KEY",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
	"STORAGE_PROJECT_ID", "STORAGE_CREDENTIALS_FILE", "STORAGE_PUBLIC_BASE_URL",
	"QUOTES_BUCKET", "REPORTS_BUCKET",
	"SCHEDULER_ENABLED", "FOLLOWUP_REMINDER_EMAIL",
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()
	setDefaults()

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"mailProvider", config.MailProvider,
	)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func setDefaults() {
	viper.SetDefault("CORS_ALLOW_ORIGINS", "*")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_CACHE_RESET", -1)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("MAIL_PROVIDER", MailProviderLog)
	viper.SetDefault("STORAGE_PUBLIC_BASE_URL", "https://storage.googleapis.com")
	viper.SetDefault("QUOTES_BUCKET", "quotes")
	viper.SetDefault("REPORTS_BUCKET", "audit-reports")
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.JWTSecret == "" {
		return log.ErrMsg("Fatal error: JWT_SECRET is required")
	}

	switch config.MailProvider {
	case MailProviderResend:
		if config.ResendAPIKey == "" {
			return log.ErrMsg("Fatal error: RESEND_API_KEY required when MAIL_PROVIDER is resend")
		}
		if config.MailFrom == "" {
			return log.ErrMsg("Fatal error: MAIL_FROM required when MAIL_PROVIDER is resend")
		}
	case MailProviderSMTP:
		if config.SMTPHost == "" {
			return log.ErrMsg("Fatal error: SMTP_HOST required when MAIL_PROVIDER is smtp")
		}
		if config.MailFrom == "" {
			return log.ErrMsg("Fatal error: MAIL_FROM required when MAIL_PROVIDER is smtp")
		}
	case MailProviderLog, "":
	default:
		return log.Error("Fatal error: unknown mail provider", "provider", config.MailProvider)
	}

	if config.StorageProjectID != "" && config.StorageCredentials == "" {
		return log.ErrMsg(
			"Fatal error: STORAGE_CREDENTIALS_FILE required when STORAGE_PROJECT_ID is set",
		)
	}

	ConfigInstance = config
	return nil
}
