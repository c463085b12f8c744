package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

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

type recordingMailer struct {
	err      error
	to       []string
	subjects []string
}

func (m *recordingMailer) Name() string { return "recording" }

func (m *recordingMailer) Send(ctx context.Context, to, subject, html string) error {
	m.to = append(m.to, to)
	m.subjects = append(m.subjects, subject)
	return m.err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(channel events.Channel, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

var jobNow = time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

func newJobEnv(t *testing.T) (*gorm.DB, repositories.Repository) {
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

	return db, repositories.New(database.DB{SQL: db})
}

func seedFollowup(t *testing.T, db *gorm.DB, repos repositories.Repository, due time.Time) *models.Followup {
	t.Helper()
	ctx := context.Background()

	client := &models.Profile{BaseUUIDModel: models.BaseUUIDModel{ID: uuid.New()}, FullName: "Camille"}
	require.NoError(t, repos.Profile.Create(ctx, db, client))

	request := &models.ServiceRequest{ClientID: client.ID, Title: "Leak", ServiceType: "repair"}
	require.NoError(t, repos.ServiceRequest.Create(ctx, db, request))

	quote := &models.Quote{ServiceRequestID: request.ID, ClientID: client.ID, Reference: "Q-" + uuid.NewString()[:8]}
	require.NoError(t, repos.Quote.Create(ctx, db, quote))

	intervention := &models.Intervention{QuoteID: quote.ID, ClientID: client.ID}
	_, err := repos.Intervention.CreateForQuote(ctx, db, intervention)
	require.NoError(t, err)

	followup := models.NewPostInterventionFollowup(intervention, due.Add(-models.FollowupDelay))
	require.NoError(t, repos.Followup.Create(ctx, db, followup))
	return followup
}

func newJob(db *gorm.DB, repos repositories.Repository, mailer services.MailProvider, publisher services.Publisher) *FollowupReminderJob {
	job := NewFollowupReminderJob(repos, database.DB{SQL: db}, mailer, publisher, "ops@example.com", DailyMorning)
	job.now = func() time.Time { return jobNow }
	return job
}

func TestFollowupReminderJob_Metadata(t *testing.T) {
	job := NewFollowupReminderJob(repositories.Repository{}, database.DB{}, nil, nil, "", DailyMorning)
	assert.Equal(t, "DailyFollowupReminder", job.Name())
	assert.Equal(t, services.DailyMorning, job.Schedule())
}

func TestFollowupReminderJob_RemindsDueFollowupsOnce(t *testing.T) {
	db, repos := newJobEnv(t)
	ctx := context.Background()

	due := seedFollowup(t, db, repos, jobNow.Add(-time.Hour))
	seedFollowup(t, db, repos, jobNow.Add(48*time.Hour))

	mailer := &recordingMailer{}
	publisher := &recordingPublisher{}
	job := newJob(db, repos, mailer, publisher)

	require.NoError(t, job.Execute(ctx))
	assert.Equal(t, []string{"ops@example.com"}, mailer.to)
	assert.Equal(t, "1 suivi(s) client à traiter", mailer.subjects[0])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.FOLLOWUP_DUE, publisher.events[0].Type)
	assert.Equal(t, 1, publisher.events[0].Data["count"])

	followups, err := repos.Followup.ListByIntervention(ctx, db, due.InterventionID)
	require.NoError(t, err)
	require.Len(t, followups, 1)
	require.NotNil(t, followups[0].RemindedAt)
	assert.Equal(t, models.FollowupStatusPending, followups[0].Status)

	job.now = func() time.Time { return jobNow.Add(time.Hour) }
	require.NoError(t, job.Execute(ctx))
	assert.Len(t, mailer.to, 1)
}

func TestFollowupReminderJob_MailFailure(t *testing.T) {
	db, repos := newJobEnv(t)
	seedFollowup(t, db, repos, jobNow.Add(-time.Hour))

	mailer := &recordingMailer{err: errors.New("smtp down")}
	publisher := &recordingPublisher{}
	job := newJob(db, repos, mailer, publisher)

	assert.Error(t, job.Execute(context.Background()))
	assert.Empty(t, publisher.events)
}

func TestFollowupReminderJob_NothingDue(t *testing.T) {
	db, repos := newJobEnv(t)
	seedFollowup(t, db, repos, jobNow.Add(24*time.Hour))

	mailer := &recordingMailer{}
	job := newJob(db, repos, mailer, nil)

	require.NoError(t, job.Execute(context.Background()))
	assert.Empty(t, mailer.to)
}
