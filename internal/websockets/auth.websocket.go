package websockets

import (
	"context"
	"errors"
	"time"

	"opsflow/internal/events"
	"opsflow/internal/models"
	"opsflow/internal/services"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.TokenInfo, error)
}

var (
	errInvalidToken = errors.New("invalid token format")
	errNotAdmin     = errors.New("admin role required")
)

// startAuthTimeout closes the connection if the client has not authenticated in time.
func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	time.Sleep(AUTH_TIMEOUT)
	if c.Manager.clientStatus(c) != STATUS_UNAUTHENTICATED {
		return
	}

	log.Warn("Client failed to authenticate within timeout, disconnecting", "clientID", c.ID)
	c.enqueue(newMessage(
		events.AUTH_FAILURE,
		SYSTEM_CHANNEL,
		"authentication_timeout",
		map[string]any{"reason": "Authentication timeout"},
	))

	time.Sleep(100 * time.Millisecond)
	if err := c.Connection.Close(); err != nil {
		log.Er("failed to close connection after auth timeout", err, "clientID", c.ID)
	}
}

func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	if c.Manager.clientStatus(c) != STATUS_UNAUTHENTICATED {
		log.Warn("Auth response from already authenticated client", "clientID", c.ID)
		return
	}

	token, _ := message.Data["token"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), AUTH_TIMEOUT)
	defer cancel()

	profile, err := c.Manager.authenticate(ctx, token)
	if err != nil {
		log.Info("WebSocket authentication failed", "clientID", c.ID, "error", err.Error())
		c.sendAuthFailure(authFailureReason(err))
		return
	}

	if !c.Manager.promoteClient(c, profile.ID) {
		return
	}

	log.Info("WebSocket client authenticated", "clientID", c.ID, "profileID", profile.ID)

	c.enqueue(newMessage(
		events.AUTH_SUCCESS,
		SYSTEM_CHANNEL,
		"authenticated",
		map[string]any{"profileId": profile.ID.String()},
	))
}

// authenticate resolves token to an admin profile.
func (m *Manager) authenticate(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, errInvalidToken
	}

	info, err := m.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := m.profiles.GetByID(ctx, m.db.SQL, info.ProfileID)
	if err != nil {
		return nil, err
	}

	if !profile.IsAdmin() {
		return nil, errNotAdmin
	}

	return profile, nil
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, errInvalidToken):
		return "Invalid token format"
	case errors.Is(err, errNotAdmin):
		return "Admin access required"
	case errors.Is(err, services.ErrNotFound):
		return "User not found"
	default:
		return "Authentication failed"
	}
}

func (c *Client) sendAuthFailure(reason string) {
	c.enqueue(newMessage(
		events.AUTH_FAILURE,
		SYSTEM_CHANNEL,
		"authentication_failed",
		map[string]any{"reason": reason},
	))

	c.Manager.log.Function("sendAuthFailure").
		Info("Auth failure sent, closing connection", "clientID", c.ID, "reason", reason)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = c.Connection.Close()
	}()
}
