package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"opsflow/internal/database"
	. "opsflow/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

type fixture struct {
	client  *Profile
	company *Company
	request *ServiceRequest
	quote   *Quote
}

func seedQuote(t *testing.T, db *gorm.DB, repos Repository) fixture {
	t.Helper()
	ctx := context.Background()

	company := &Company{Name: "Acme"}
	require.NoError(t, repos.Company.Create(ctx, db, company))

	email := "client@example.com"
	client := &Profile{
		BaseUUIDModel: BaseUUIDModel{ID: uuid.New()},
		CompanyID:     &company.ID,
		FullName:      "Camille Client",
		Email:         &email,
	}
	require.NoError(t, repos.Profile.Create(ctx, db, client))

	request := &ServiceRequest{
		CompanyID:   &company.ID,
		ClientID:    client.ID,
		Title:       "Boiler maintenance",
		ServiceType: "maintenance",
	}
	require.NoError(t, repos.ServiceRequest.Create(ctx, db, request))

	quote := &Quote{
		ServiceRequestID: request.ID,
		CompanyID:        &company.ID,
		ClientID:         client.ID,
		Reference:        "Q-" + uuid.NewString()[:8],
		VatRate:          decimal.NewFromInt(20),
		TotalHT:          decimal.RequireFromString("250.50"),
		TotalTVA:         decimal.RequireFromString("50.10"),
		TotalTTC:         decimal.RequireFromString("300.60"),
	}
	require.NoError(t, repos.Quote.Create(ctx, db, quote))

	return fixture{client: client, company: company, request: request, quote: quote}
}

func TestRepositories_NotFound(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	missing := uuid.New()

	_, err := repos.Quote.GetByID(ctx, db, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repos.Intervention.GetByID(ctx, db, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repos.Audit.GetByID(ctx, db, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repos.Profile.GetByID(ctx, db, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	err = repos.Quote.Update(ctx, db, missing, map[string]any{"status": QuoteStatusRejected})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInterventionRepository_CreateForQuote(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	f := seedQuote(t, db, repos)

	first := &Intervention{QuoteID: f.quote.ID, ClientID: f.client.ID, CompanyID: f.quote.CompanyID}
	created, err := repos.Intervention.CreateForQuote(ctx, db, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, InterventionStatusWaiting, first.Status)

	second := &Intervention{QuoteID: f.quote.ID, ClientID: f.client.ID}
	created, err = repos.Intervention.CreateForQuote(ctx, db, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&Intervention{}).Where("quote_id = ?", f.quote.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInterventionRepository_MarkCompleted(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	f := seedQuote(t, db, repos)

	intervention := &Intervention{QuoteID: f.quote.ID, ClientID: f.client.ID}
	_, err := repos.Intervention.CreateForQuote(ctx, db, intervention)
	require.NoError(t, err)

	end := time.Now().UTC().Truncate(time.Second)
	changed, err := repos.Intervention.MarkCompleted(ctx, db, intervention.ID, end)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repos.Intervention.MarkCompleted(ctx, db, intervention.ID, end.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	reloaded, err := repos.Intervention.GetByID(ctx, db, intervention.ID)
	require.NoError(t, err)
	assert.Equal(t, InterventionStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.EndDate)
	assert.True(t, end.Equal(reloaded.EndDate.UTC()))
}

func TestQuoteRepository_StatusChanges(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	f := seedQuote(t, db, repos)
	now := time.Now().UTC()

	sent, err := repos.Quote.MarkSent(ctx, db, f.quote.ID, now)
	require.NoError(t, err)
	assert.True(t, sent)

	changed, err := repos.Quote.MarkValidated(ctx, db, f.quote.ID, now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repos.Quote.MarkValidated(ctx, db, f.quote.ID, now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repos.Quote.MarkRejected(ctx, db, f.quote.ID, now)
	require.NoError(t, err)
	assert.False(t, changed, "a validated quote can no longer be rejected")

	sent, err = repos.Quote.MarkSent(ctx, db, f.quote.ID, now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, sent, "a validated quote cannot be sent again")

	quote, err := repos.Quote.GetByID(ctx, db, f.quote.ID)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusValidated, quote.Status)
	assert.NotNil(t, quote.SentAt)
	assert.NotNil(t, quote.ValidatedAt)
	assert.Nil(t, quote.RejectedAt)

	revenue, err := repos.Quote.AcceptedRevenue(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "300.60", revenue.StringFixed(2))
}

func TestQuoteRepository_AcceptedRevenueEmpty(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})

	revenue, err := repos.Quote.AcceptedRevenue(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())
}

func TestServiceRequestRepository_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	f := seedQuote(t, db, repos)

	changed, err := repos.ServiceRequest.UpdateStatus(
		ctx, db, f.request.ID, ServiceRequestStatusPending,
		map[string]any{"status": ServiceRequestStatusInProgress},
	)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repos.ServiceRequest.UpdateStatus(
		ctx, db, f.request.ID, ServiceRequestStatusPending,
		map[string]any{"status": ServiceRequestStatusCancelled},
	)
	require.NoError(t, err)
	assert.False(t, changed)

	counts, err := repos.ServiceRequest.CountByStatus(ctx, db)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, string(ServiceRequestStatusInProgress), counts[0].Status)
	assert.Equal(t, int64(1), counts[0].Count)
}

func TestFollowupRepository_ListDue(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	f := seedQuote(t, db, repos)

	intervention := &Intervention{QuoteID: f.quote.ID, ClientID: f.client.ID}
	_, err := repos.Intervention.CreateForQuote(ctx, db, intervention)
	require.NoError(t, err)

	now := time.Now().UTC()
	due := NewPostInterventionFollowup(intervention, now.Add(-8*24*time.Hour))
	later := NewPostInterventionFollowup(intervention, now)
	require.NoError(t, repos.Followup.Create(ctx, db, due))
	require.NoError(t, repos.Followup.Create(ctx, db, later))

	followups, err := repos.Followup.ListDue(ctx, db, now)
	require.NoError(t, err)
	require.Len(t, followups, 1)
	assert.Equal(t, due.ID, followups[0].ID)

	require.NoError(t, repos.Followup.MarkDone(ctx, db, due.ID, nil))

	followups, err = repos.Followup.ListDue(ctx, db, now)
	require.NoError(t, err)
	assert.Empty(t, followups)

	pending, err := repos.Followup.CountPending(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestWorkflowLogRepository_ListByEntity(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	entityID := uuid.New()

	require.NoError(t, repos.WorkflowLog.Create(ctx, db, &WorkflowLog{
		EntityType: EntityTypeQuote,
		EntityID:   entityID,
		Action:     ActionQuoteSent,
	}))
	require.NoError(t, repos.WorkflowLog.Create(ctx, db, &WorkflowLog{
		EntityType: EntityTypeIntervention,
		EntityID:   uuid.New(),
		Action:     ActionInterventionCompleted,
	}))

	entries, err := repos.WorkflowLog.ListByEntity(ctx, db, EntityTypeQuote, entityID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionQuoteSent, entries[0].Action)

	recent, err := repos.WorkflowLog.ListRecent(ctx, db, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMessageRepository_MarkRead(t *testing.T) {
	db := newTestDB(t)
	repos := New(database.DB{SQL: db})
	ctx := context.Background()
	f := seedQuote(t, db, repos)
	adminID := uuid.New()

	require.NoError(t, repos.Message.Create(ctx, db, &Message{
		ServiceRequestID: f.request.ID,
		SenderID:         adminID,
		Body:             "Technician booked for Monday",
	}))
	require.NoError(t, repos.Message.Create(ctx, db, &Message{
		ServiceRequestID: f.request.ID,
		SenderID:         f.client.ID,
		Body:             "Thanks",
	}))

	marked, err := repos.Message.MarkRead(ctx, db, f.request.ID, f.client.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	messages, err := repos.Message.ListByServiceRequest(ctx, db, f.request.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}
