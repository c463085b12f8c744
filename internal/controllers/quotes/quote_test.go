package quoteController

import (
	"context"
	"fmt"
	"testing"

	"opsflow/config"
	"opsflow/internal/database"
	. "opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db         *gorm.DB
	repos      repositories.Repository
	controller QuoteControllerInterface
	admin      *Profile
	client     *Profile
	request    *ServiceRequest
}

func newTestEnv(t *testing.T) testEnv {
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

	dbWrapper := database.DB{SQL: db}
	repos := repositories.New(dbWrapper)
	transaction := services.NewTransactionService(dbWrapper)
	cfg := config.Config{QuotesBucket: "quotes", ReportsBucket: "audit-reports"}
	svc := services.Service{
		Transaction: transaction,
		Workflow:    services.NewWorkflowService(transaction, repos, nil, nil, nil, cfg),
	}

	ctx := context.Background()
	company := &Company{Name: "Acme"}
	require.NoError(t, repos.Company.Create(ctx, db, company))

	admin := &Profile{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, FullName: "Alex Admin", Role: RoleAdmin}
	require.NoError(t, repos.Profile.Create(ctx, db, admin))

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

	return testEnv{
		db:         db,
		repos:      repos,
		controller: New(repos, svc, cfg, dbWrapper),
		admin:      admin,
		client:     client,
		request:    request,
	}
}

func (e testEnv) createQuote(t *testing.T) *Quote {
	t.Helper()

	quote, err := e.controller.Create(context.Background(), e.admin, &CreateQuoteRequest{
		ServiceRequestID: e.request.ID,
		Items: []LineItemRequest{
			{Description: "Pièces", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("100.00")},
			{Description: "Main d'oeuvre", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("50.50")},
		},
	})
	require.NoError(t, err)
	return quote
}

func TestQuoteController_CreateComputesTotals(t *testing.T) {
	env := newTestEnv(t)
	quote := env.createQuote(t)

	assert.Equal(t, "250.50", quote.TotalHT.StringFixed(2))
	assert.Equal(t, "50.10", quote.TotalTVA.StringFixed(2))
	assert.Equal(t, "300.60", quote.TotalTTC.StringFixed(2))
	assert.Equal(t, QuoteStatusPending, quote.Status)
	assert.Equal(t, env.client.ID, quote.ClientID)
	assert.Regexp(t, `^DEV-\d{8}-[0-9A-F]{6}$`, quote.Reference)
	assert.Nil(t, quote.PDFURL)

	items, err := quote.Items()
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestQuoteController_CreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.controller.Create(ctx, env.admin, &CreateQuoteRequest{ServiceRequestID: env.request.ID})
	assert.Error(t, err)

	_, err = env.controller.Create(ctx, env.admin, &CreateQuoteRequest{
		ServiceRequestID: env.request.ID,
		Items:            []LineItemRequest{{Description: "x", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, services.ErrInvalidField)

	_, err = env.controller.Create(ctx, env.admin, &CreateQuoteRequest{
		ServiceRequestID: uuid.New(),
		Items:            []LineItemRequest{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestQuoteController_AcceptOpensIntervention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quote := env.createQuote(t)

	sent, err := env.controller.Send(ctx, env.admin, quote.ID)
	require.NoError(t, err)
	assert.True(t, sent.Applied)
	assert.False(t, sent.Notification.Attempted)

	result, err := env.controller.Accept(ctx, env.client, quote.ID)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.NotNil(t, result.InterventionID)

	stored, err := env.repos.Quote.GetByID(ctx, env.db, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusValidated, stored.Status)

	_, err = env.controller.Accept(ctx, env.client, quote.ID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)

	_, err = env.controller.Reject(ctx, env.client, quote.ID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestQuoteController_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quote := env.createQuote(t)

	rejected, err := env.controller.Reject(ctx, env.client, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, QuoteStatusRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectedAt)

	_, err = env.controller.Accept(ctx, env.client, quote.ID)
	assert.ErrorIs(t, err, services.ErrInvalidTransition)
}

func TestQuoteController_ClientCannotTouchOthersQuotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	quote := env.createQuote(t)

	stranger := &Profile{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}, Role: RoleClient}

	_, err := env.controller.Get(ctx, stranger, quote.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = env.controller.Accept(ctx, stranger, quote.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = env.controller.Reject(ctx, stranger, quote.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}
