package jobs

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"opsflow/internal/database"
	"opsflow/internal/events"
	"opsflow/internal/metrics"
	"opsflow/internal/models"
	"opsflow/internal/repositories"
	"opsflow/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// remindAgainAfter keeps a followup that stays pending from being mailed more than once
// per daily run.
const remindAgainAfter = 20 * time.Hour

var reminderTemplate = template.Must(template.New("followupReminder").Parse(`<p>Bonjour,</p>
<p>{{len .}} suivi(s) post-intervention à traiter :</p>
<ul>
{{range .}}<li>Intervention {{.InterventionID}} : échéance le {{.NextActionDate.Format "02/01/2006"}}</li>
{{end}}</ul>`))

type FollowupReminderJob struct {
	repos         repositories.Repository
	db            database.DB
	mailer        services.MailProvider
	publisher     services.Publisher
	fallbackEmail string
	schedule      services.Schedule
	now           func() time.Time
	log           logger.Logger
}

func NewFollowupReminderJob(
	repos repositories.Repository,
	db database.DB,
	mailer services.MailProvider,
	publisher services.Publisher,
	fallbackEmail string,
	schedule services.Schedule,
) *FollowupReminderJob {
	log := logger.New("followupReminderJob")
	log.Info("Creating new followup reminder job", "schedule", schedule)

	return &FollowupReminderJob{
		repos:         repos,
		db:            db,
		mailer:        mailer,
		publisher:     publisher,
		fallbackEmail: fallbackEmail,
		schedule:      schedule,
		now:           func() time.Time { return time.Now().UTC() },
		log:           log,
	}
}

func (j *FollowupReminderJob) Name() string {
	return "DailyFollowupReminder"
}

func (j *FollowupReminderJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *FollowupReminderJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")
	now := j.now()

	due, err := j.repos.Followup.ListDue(ctx, j.db.SQL, now)
	if err != nil {
		return log.Err("failed to list due followups", err)
	}

	pending := make([]*models.Followup, 0, len(due))
	for _, followup := range due {
		if followup.RemindedAt == nil || now.Sub(*followup.RemindedAt) >= remindAgainAfter {
			pending = append(pending, followup)
		}
	}

	if len(pending) == 0 {
		log.Info("No followups due")
		return nil
	}

	recipients, err := j.recipients(ctx)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, pending); err != nil {
		return log.Err("failed to render reminder", err)
	}
	subject := fmt.Sprintf("%d suivi(s) client à traiter", len(pending))

	sent := 0
	for _, to := range recipients {
		if err := j.mailer.Send(ctx, to, subject, body.String()); err != nil {
			metrics.IncNotification("followup_reminder", "failed")
			log.Warn("followup reminder not sent", "to", to, "error", err)
			continue
		}
		metrics.IncNotification("followup_reminder", "sent")
		sent++
	}

	if len(recipients) > 0 && sent == 0 {
		return log.Error("no followup reminder could be sent", "recipients", len(recipients))
	}

	ids := make([]uuid.UUID, 0, len(pending))
	for _, followup := range pending {
		ids = append(ids, followup.ID)
	}

	if err := j.repos.Followup.MarkReminded(ctx, j.db.SQL, ids, now); err != nil {
		return err
	}
	metrics.AddFollowupReminders(len(ids))

	if j.publisher != nil {
		idStrings := make([]string, 0, len(ids))
		for _, id := range ids {
			idStrings = append(idStrings, id.String())
		}
		if err := j.publisher.Publish(events.FOLLOWUP_CHANNEL, events.Event{
			Type: events.FOLLOWUP_DUE,
			Data: map[string]any{"count": len(ids), "followup_ids": idStrings},
		}); err != nil {
			log.Warn("failed to publish followup event", "error", err)
		}
	}

	log.Info("Followup reminders processed", "due", len(pending), "recipients", len(recipients), "sent", sent)
	return nil
}

// recipients prefers FOLLOWUP_REMINDER_EMAIL and falls back to every admin with an email.
func (j *FollowupReminderJob) recipients(ctx context.Context) ([]string, error) {
	if j.fallbackEmail != "" {
		return []string{j.fallbackEmail}, nil
	}

	admins, err := j.repos.Profile.ListAdmins(ctx, j.db.SQL)
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(admins))
	for _, admin := range admins {
		if email := admin.ContactEmail(); email != "" {
			recipients = append(recipients, email)
		}
	}

	if len(recipients) == 0 {
		j.log.Function("recipients").Warn("no admin email on file, reminders only published")
	}

	return recipients, nil
}
