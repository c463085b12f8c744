package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"opsflow/internal/metrics"
	"opsflow/internal/validation"

	logger "github.com/Bparsons0904/goLogger"
)

type EmailType string

const (
	EmailTypeConfirmation     EmailType = "confirmation"
	EmailTypeQuote            EmailType = "quote"
	EmailTypeInterventionDate EmailType = "intervention_date"
)

type EmailRequest struct {
	Type             EmailType `json:"type"                       validate:"required,oneof=confirmation quote intervention_date"`
	To               string    `json:"to"                         validate:"required,email"`
	ClientName       string    `json:"clientName"                 validate:"required"`
	QuoteNumber      string    `json:"quoteNumber,omitempty"      validate:"required_if=Type quote"`
	Amount           string    `json:"amount,omitempty"`
	PDFURL           string    `json:"pdfUrl,omitempty"           validate:"omitempty,url"`
	InterventionDate string    `json:"interventionDate,omitempty" validate:"required_if=Type intervention_date"`
	ServiceType      string    `json:"serviceType,omitempty"`
	RequestTitle     string    `json:"requestTitle,omitempty"`
}

// Notifier sends one templated email. Callers on the workflow path treat any error as
// non-fatal.
type Notifier interface {
	Send(ctx context.Context, req EmailRequest) error
}

type emailTemplate struct {
	subject *texttemplate.Template
	body    *template.Template
}

type NotificationService struct {
	provider  MailProvider
	validator *validation.Validator
	templates map[EmailType]emailTemplate
	log       logger.Logger
}

func NewNotificationService(provider MailProvider) *NotificationService {
	return &NotificationService{
		provider:  provider,
		validator: validation.New(),
		templates: map[EmailType]emailTemplate{
			EmailTypeConfirmation:     mustTemplate("confirmation", confirmationSubject, confirmationBody),
			EmailTypeQuote:            mustTemplate("quote", quoteSubject, quoteBody),
			EmailTypeInterventionDate: mustTemplate("intervention_date", interventionSubject, interventionBody),
		},
		log: logger.New("NotificationService"),
	}
}

func (s *NotificationService) Validate(req EmailRequest) error {
	return s.validator.Validate(req)
}

// Render returns the subject and HTML body for req without sending anything.
func (s *NotificationService) Render(req EmailRequest) (string, string, error) {
	tmpl, ok := s.templates[req.Type]
	if !ok {
		return "", "", fmt.Errorf("unknown email type %q", req.Type)
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, req); err != nil {
		return "", "", err
	}
	if err := tmpl.body.Execute(&body, req); err != nil {
		return "", "", err
	}

	return subject.String(), body.String(), nil
}

func (s *NotificationService) Send(ctx context.Context, req EmailRequest) error {
	log := s.log.Function("Send")

	if err := s.Validate(req); err != nil {
		metrics.IncNotification(string(req.Type), "invalid")
		return err
	}

	subject, body, err := s.Render(req)
	if err != nil {
		metrics.IncNotification(string(req.Type), "failed")
		return log.Err("failed to render email", err, "type", req.Type)
	}

	if err := s.provider.Send(ctx, req.To, subject, body); err != nil {
		metrics.IncNotification(string(req.Type), "failed")
		return log.Err("failed to send email", err, "type", req.Type, "provider", s.provider.Name())
	}

	metrics.IncNotification(string(req.Type), "sent")
	log.Info("Email sent", "type", req.Type, "provider", s.provider.Name())
	return nil
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New(name + "_subject").Parse(subject)),
		body:    template.Must(template.New(name).Parse(body)),
	}
}

const (
	confirmationSubject = `Confirmation de votre demande{{if .RequestTitle}} : {{.RequestTitle}}{{end}}`
	confirmationBody    = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #1f2937;">
<h2>Bonjour {{.ClientName}},</h2>
<p>Nous avons bien reçu votre demande{{if .RequestTitle}} « {{.RequestTitle}} »{{end}}{{if .ServiceType}} ({{.ServiceType}}){{end}}.</p>
<p>Notre équipe l'étudie et reviendra vers vous rapidement.</p>
<p>Cordialement,<br>L'équipe</p>
</body></html>`

	quoteSubject = `Votre devis {{.QuoteNumber}}`
	quoteBody    = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #1f2937;">
<h2>Bonjour {{.ClientName}},</h2>
<p>Votre devis <strong>{{.QuoteNumber}}</strong> est disponible{{if .Amount}} pour un montant de <strong>{{.Amount}} € TTC</strong>{{end}}.</p>
{{if .PDFURL}}<p><a href="{{.PDFURL}}">Télécharger le devis (PDF)</a></p>{{end}}
<p>Vous pouvez l'accepter ou le refuser depuis votre espace client.</p>
<p>Cordialement,<br>L'équipe</p>
</body></html>`

	interventionSubject = `Intervention planifiée le {{.InterventionDate}}`
	interventionBody    = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #1f2937;">
<h2>Bonjour {{.ClientName}},</h2>
<p>Votre intervention{{if .ServiceType}} ({{.ServiceType}}){{end}} est planifiée le <strong>{{.InterventionDate}}</strong>.</p>
{{if .RequestTitle}}<p>Demande concernée : {{.RequestTitle}}</p>{{end}}
<p>Cordialement,<br>L'équipe</p>
</body></html>`
)
