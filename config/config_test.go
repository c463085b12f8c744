package config

import (
	"testing"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		ServerPort:   8080,
		JWTSecret:    "secret",
		MailProvider: MailProviderLog,
	}
}

func TestValidateConfig(t *testing.T) {
	log := logger.New("test")

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "valid log provider", mutate: func(c *Config) {}},
		{name: "invalid port", mutate: func(c *Config) { c.ServerPort = 0 }, wantError: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantError: true},
		{
			name: "resend without key",
			mutate: func(c *Config) {
				c.MailProvider = MailProviderResend
				c.MailFrom = "ops@example.com"
			},
			wantError: true,
		},
		{
			name: "resend configured",
			mutate: func(c *Config) {
				c.MailProvider = MailProviderResend
				c.MailFrom = "ops@example.com"
				c.ResendAPIKey = "re_123"
			},
		},
		{
			name:      "smtp without host",
			mutate:    func(c *Config) { c.MailProvider = MailProviderSMTP; c.MailFrom = "ops@example.com" },
			wantError: true,
		},
		{name: "unknown provider", mutate: func(c *Config) { c.MailProvider = "pigeon" }, wantError: true},
		{
			name:      "storage project without credentials",
			mutate:    func(c *Config) { c.StorageProjectID = "proj" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := validateConfig(cfg, log)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, cfg, GetConfig())
			}
		})
	}
}
