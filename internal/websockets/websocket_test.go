package websockets

import (
	"context"
	"fmt"
	"testing"
	"time"

	"opsflow/config"
	"opsflow/internal/database"
	"opsflow/internal/events"
	"opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func newTestManager(t *testing.T) (*Manager, *services.TokenService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	cfg := config.Config{JWTSecret: "test-secret", JWTIssuer: "opsflow-test"}
	tokens := services.NewTokenService(cfg)
	manager := newManager(database.DB{SQL: db}, tokens, repositories.NewProfileRepository(nil), cfg)

	return manager, tokens, db
}

func createProfile(t *testing.T, db *gorm.DB, role models.Role) *models.Profile {
	t.Helper()

	email := uuid.NewString() + "@example.com"
	profile := &models.Profile{FullName: "Test User", Email: &email, Role: role}
	profile.ID = uuid.New()
	require.NoError(t, db.Create(profile).Error)
	return profile
}

func TestAuthenticate(t *testing.T) {
	manager, tokens, db := newTestManager(t)
	ctx := context.Background()

	admin := createProfile(t, db, models.RoleAdmin)
	client := createProfile(t, db, models.RoleClient)

	adminToken, err := tokens.IssueToken(admin.ID, admin.ContactEmail(), time.Hour)
	require.NoError(t, err)
	clientToken, err := tokens.IssueToken(client.ID, client.ContactEmail(), time.Hour)
	require.NoError(t, err)
	unknownToken, err := tokens.IssueToken(uuid.New(), "ghost@example.com", time.Hour)
	require.NoError(t, err)

	t.Run("admin token", func(t *testing.T) {
		profile, err := manager.authenticate(ctx, adminToken)
		require.NoError(t, err)
		assert.Equal(t, admin.ID, profile.ID)
	})

	t.Run("client token is refused", func(t *testing.T) {
		_, err := manager.authenticate(ctx, clientToken)
		assert.ErrorIs(t, err, errNotAdmin)
		assert.Equal(t, "Admin access required", authFailureReason(err))
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := manager.authenticate(ctx, unknownToken)
		assert.ErrorIs(t, err, services.ErrNotFound)
		assert.Equal(t, "User not found", authFailureReason(err))
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := manager.authenticate(ctx, "")
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.authenticate(ctx, "not-a-jwt")
		require.Error(t, err)
		assert.Equal(t, "Authentication failed", authFailureReason(err))
	})
}

func TestBroadcastReachesAuthenticatedClientsOnly(t *testing.T) {
	manager, _, _ := newTestManager(t)

	pending := &Client{ID: "pending", Manager: manager, send: make(chan Message, 1)}
	admin := &Client{ID: "admin", Manager: manager, send: make(chan Message, 1)}

	manager.registerClient(pending)
	manager.registerClient(admin)
	require.True(t, manager.promoteClient(admin, uuid.New()))
	assert.False(t, manager.promoteClient(admin, uuid.New()), "promotion happens once")
	assert.Equal(t, 1, manager.ConnectedAdmins())

	message := messageFromEvent(events.Event{
		ID:      "evt-1",
		Type:    events.WORKFLOW,
		Channel: events.WORKFLOW_CHANNEL,
		Data:    map[string]any{"kind": services.KindQuoteValidated},
	})

	sent := manager.hub.broadcastMessage(message, manager)
	assert.Equal(t, 1, sent)

	received := <-admin.send
	assert.Equal(t, "evt-1", received.ID)
	assert.Equal(t, "onQuoteValidated", received.Action)
	assert.Equal(t, "workflow", received.Channel)
	assert.Empty(t, pending.send)
}

func TestUnauthenticatedMessagesAreBlocked(t *testing.T) {
	manager, _, _ := newTestManager(t)

	client := &Client{ID: "anon", Manager: manager, send: make(chan Message, 1)}
	manager.registerClient(client)

	client.routeMessage(Message{Type: events.PING})

	reply := <-client.send
	assert.Equal(t, events.AUTH_FAILURE, reply.Type)
	assert.Equal(t, "authentication_required", reply.Action)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	manager, _, _ := newTestManager(t)

	client := &Client{ID: "gone", Manager: manager, send: make(chan Message, 1)}
	manager.registerClient(client)

	manager.unregisterClient(client)
	assert.NotPanics(t, func() { manager.unregisterClient(client) })
	assert.NotPanics(t, func() { client.enqueue(Message{Type: events.PONG}) })
	assert.Equal(t, STATUS_CLOSED, client.Status)
}
