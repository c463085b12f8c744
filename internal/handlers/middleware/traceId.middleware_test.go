package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	m := &Middleware{}
	app := fiber.New()
	app.Use(m.TraceID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(GetTraceID(c))
	})

	tests := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{name: "missing header", incoming: ""},
		{name: "caller trace id", incoming: "dashboard-42_a", reused: true},
		{name: "unsafe characters", incoming: "abc\" injected=1"},
		{name: "too long", incoming: strings.Repeat("a", maxTraceIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(TraceIDHeader, tt.incoming)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			traceID := resp.Header.Get(TraceIDHeader)
			if tt.reused {
				assert.Equal(t, tt.incoming, traceID)
				return
			}

			_, err = uuid.Parse(traceID)
			assert.NoError(t, err)
		})
	}
}
