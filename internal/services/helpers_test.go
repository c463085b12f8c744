package services

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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

type stubNotifier struct {
	err  error
	sent []EmailRequest
}

func (n *stubNotifier) Send(ctx context.Context, req EmailRequest) error {
	n.sent = append(n.sent, req)
	return n.err
}

type stubPublisher struct {
	published []events.Event
}

func (p *stubPublisher) Publish(channel events.Channel, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

type stubStore struct {
	err     error
	objects []string
}

func (s *stubStore) Upload(
	ctx context.Context,
	bucket, object, contentType string,
	data []byte,
) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.objects = append(s.objects, bucket+"/"+object)
	return "https://storage.test/" + bucket + "/" + object, nil
}

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type workflowHarness struct {
	db        *gorm.DB
	repos     repositories.Repository
	notifier  *stubNotifier
	publisher *stubPublisher
	store     *stubStore
	service   *WorkflowService
}

func newWorkflowHarness(t *testing.T) *workflowHarness {
	t.Helper()

	db := newTestDB(t)
	dbWrapper := database.DB{SQL: db}
	repos := repositories.New(dbWrapper)

	h := &workflowHarness{
		db:        db,
		repos:     repos,
		notifier:  &stubNotifier{},
		publisher: &stubPublisher{},
		store:     &stubStore{},
	}
	h.service = NewWorkflowService(
		NewTransactionService(dbWrapper),
		repos,
		h.notifier,
		h.publisher,
		h.store,
		config.Config{ReportsBucket: "audit-reports", QuotesBucket: "quotes"},
	)
	h.service.now = func() time.Time { return fixedNow }

	return h
}

type seeded struct {
	client  *models.Profile
	company *models.Company
	request *models.ServiceRequest
	quote   *models.Quote
}

func (h *workflowHarness) seedQuote(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()

	company := &models.Company{Name: "Acme"}
	require.NoError(t, h.repos.Company.Create(ctx, h.db, company))

	email := "client@example.com"
	client := &models.Profile{
		BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()},
		CompanyID:     &company.ID,
		FullName:      "Camille Client",
		Email:         &email,
	}
	require.NoError(t, h.repos.Profile.Create(ctx, h.db, client))

	request := &models.ServiceRequest{
		CompanyID:   &company.ID,
		ClientID:    client.ID,
		Title:       "Boiler maintenance",
		ServiceType: "maintenance",
	}
	require.NoError(t, h.repos.ServiceRequest.Create(ctx, h.db, request))

	quote := &models.Quote{
		ServiceRequestID: request.ID,
		CompanyID:        &company.ID,
		ClientID:         client.ID,
		Reference:        "Q-" + uuid.NewString()[:8],
		VatRate:          decimal.NewFromInt(20),
		TotalHT:          decimal.RequireFromString("250.50"),
		TotalTVA:         decimal.RequireFromString("50.10"),
		TotalTTC:         decimal.RequireFromString("300.60"),
	}
	require.NoError(t, h.repos.Quote.Create(ctx, h.db, quote))

	return seeded{client: client, company: company, request: request, quote: quote}
}

func (h *workflowHarness) countLogs(t *testing.T, action models.WorkflowAction) int64 {
	t.Helper()

	var count int64
	require.NoError(t, h.db.Model(&models.WorkflowLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}
