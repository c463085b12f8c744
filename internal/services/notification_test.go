package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"opsflow/config"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	err     error
	to      string
	subject string
	body    string
	calls   int
}

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Send(ctx context.Context, to, subject, html string) error {
	p.calls++
	p.to, p.subject, p.body = to, subject, html
	return p.err
}

func TestNotificationService_Render(t *testing.T) {
	service := NewNotificationService(&recordingProvider{})

	tests := []struct {
		name        string
		req         EmailRequest
		subject     string
		bodyContent []string
	}{
		{
			name:        "confirmation",
			req:         EmailRequest{Type: EmailTypeConfirmation, To: "a@example.com", ClientName: "Camille", RequestTitle: "Chaudière"},
			subject:     "Confirmation de votre demande : Chaudière",
			bodyContent: []string{"Bonjour Camille", "Chaudière"},
		},
		{
			name: "quote",
			req: EmailRequest{
				Type: EmailTypeQuote, To: "a@example.com", ClientName: "Camille",
				QuoteNumber: "DEV-001", Amount: "300.60", PDFURL: "https://cdn.example.com/q.pdf",
			},
			subject:     "Votre devis DEV-001",
			bodyContent: []string{"DEV-001", "300.60", "https://cdn.example.com/q.pdf"},
		},
		{
			name: "intervention date",
			req: EmailRequest{
				Type: EmailTypeInterventionDate, To: "a@example.com", ClientName: "Camille",
				InterventionDate: "12/03/2025", ServiceType: "maintenance",
			},
			subject:     "Intervention planifiée le 12/03/2025",
			bodyContent: []string{"12/03/2025", "maintenance"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body, err := service.Render(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, subject)
			for _, content := range tt.bodyContent {
				assert.Contains(t, body, content)
			}
		})
	}
}

func TestNotificationService_RenderEscapesHTML(t *testing.T) {
	service := NewNotificationService(&recordingProvider{})

	_, body, err := service.Render(EmailRequest{
		Type: EmailTypeConfirmation, To: "a@example.com", ClientName: "<script>x</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestNotificationService_Send(t *testing.T) {
	t.Run("Rejects unknown type", func(t *testing.T) {
		provider := &recordingProvider{}
		service := NewNotificationService(provider)

		err := service.Send(context.Background(), EmailRequest{Type: "newsletter", To: "a@example.com", ClientName: "C"})
		assert.Error(t, err)
		assert.Equal(t, 0, provider.calls)
	})

	t.Run("Rejects invalid recipient", func(t *testing.T) {
		provider := &recordingProvider{}
		service := NewNotificationService(provider)

		err := service.Send(context.Background(), EmailRequest{Type: EmailTypeConfirmation, To: "nope", ClientName: "C"})
		assert.Error(t, err)
		assert.Equal(t, 0, provider.calls)
	})

	t.Run("Quote requires a number", func(t *testing.T) {
		service := NewNotificationService(&recordingProvider{})

		err := service.Send(context.Background(), EmailRequest{Type: EmailTypeQuote, To: "a@example.com", ClientName: "C"})
		assert.Error(t, err)
	})

	t.Run("Delivers through provider", func(t *testing.T) {
		provider := &recordingProvider{}
		service := NewNotificationService(provider)

		err := service.Send(context.Background(), EmailRequest{Type: EmailTypeConfirmation, To: "a@example.com", ClientName: "C"})
		require.NoError(t, err)
		assert.Equal(t, 1, provider.calls)
		assert.Equal(t, "a@example.com", provider.to)
	})

	t.Run("Surfaces provider failure", func(t *testing.T) {
		provider := &recordingProvider{err: errors.New("smtp down")}
		service := NewNotificationService(provider)

		err := service.Send(context.Background(), EmailRequest{Type: EmailTypeConfirmation, To: "a@example.com", ClientName: "C"})
		assert.Error(t, err)
	})
}

func TestResendProvider_Send(t *testing.T) {
	provider := NewResendProvider(config.Config{ResendAPIKey: "re_test", MailFrom: "ops@example.com"})
	httpmock.ActivateNonDefault(provider.http)
	defer httpmock.DeactivateAndReset()

	var payload resendEmail
	var authHeader string
	httpmock.RegisterResponder(http.MethodPost, resendEndpoint,
		func(req *http.Request) (*http.Response, error) {
			authHeader = req.Header.Get("Authorization")
			data, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"id":"email_123"}`), nil
		},
	)

	err := provider.Send(context.Background(), "client@example.com", "Votre devis", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, 1, httpmock.GetTotalCallCount())
	assert.Equal(t, "Bearer re_test", authHeader)
	assert.Equal(t, "ops@example.com", payload.From)
	assert.Equal(t, []string{"client@example.com"}, payload.To)
	assert.Equal(t, "Votre devis", payload.Subject)
	assert.Equal(t, "<p>hi</p>", payload.HTML)
}

func TestResendProvider_SendFailure(t *testing.T) {
	provider := NewResendProvider(config.Config{ResendAPIKey: "re_test", MailFrom: "ops@example.com"})
	httpmock.ActivateNonDefault(provider.http)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, resendEndpoint,
		httpmock.NewStringResponder(http.StatusUnprocessableEntity, `{"message":"invalid"}`))

	err := provider.Send(context.Background(), "client@example.com", "s", "b")
	assert.Error(t, err)
}

func TestNewMailProvider(t *testing.T) {
	assert.Equal(t, config.MailProviderResend, NewMailProvider(config.Config{MailProvider: "resend"}).Name())
	assert.Equal(t, config.MailProviderSMTP, NewMailProvider(config.Config{MailProvider: "SMTP"}).Name())
	assert.Equal(t, config.MailProviderLog, NewMailProvider(config.Config{}).Name())
}

func TestBuildSMTPMessage(t *testing.T) {
	t.Run("ascii subject unchanged", func(t *testing.T) {
		msg := string(buildSMTPMessage("ops@example.com", "client@example.com", "Your quote", "<p>hi</p>"))
		assert.Contains(t, msg, "\r\nSubject: Your quote\r\n")
		assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>\r\n"))
	})

	t.Run("accented subject is encoded", func(t *testing.T) {
		msg := string(buildSMTPMessage("ops@example.com", "client@example.com", "Intervention planifiée", "x"))
		assert.Contains(t, msg, "Subject: =?utf-8?q?Intervention_planifi=C3=A9e?=\r\n")
	})

	t.Run("line breaks cannot add headers", func(t *testing.T) {
		msg := string(buildSMTPMessage(
			"ops@example.com",
			"client@example.com\r\nCc: other@example.com",
			"Devis\r\nBcc: evil@example.com",
			"x",
		))

		headers := strings.SplitN(msg, "\r\n\r\n", 2)[0]
		for _, line := range strings.Split(headers, "\r\n") {
			assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
			assert.False(t, strings.HasPrefix(line, "Cc:"), line)
		}
		assert.Len(t, strings.Split(headers, "\r\n"), 5)
	})
}
