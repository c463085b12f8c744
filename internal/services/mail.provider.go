package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"opsflow/config"

	logger "github.com/Bparsons0904/goLogger"
)

const resendEndpoint = "https://api.resend.com/emails"

// MailProvider delivers one rendered HTML email to one recipient.
type MailProvider interface {
	Name() string
	Send(ctx context.Context, to, subject, html string) error
}

// NewMailProvider picks the provider named by MAIL_PROVIDER. Anything unset falls back to
// the log provider so local environments never reach a real inbox.
func NewMailProvider(cfg config.Config) MailProvider {
	switch strings.ToLower(cfg.MailProvider) {
	case config.MailProviderResend:
		return NewResendProvider(cfg)
	case config.MailProviderSMTP:
		return NewSMTPProvider(cfg)
	default:
		return NewLogProvider()
	}
}

type ResendProvider struct {
	apiKey   string
	from     string
	endpoint string
	http     *http.Client
}

func NewResendProvider(cfg config.Config) *ResendProvider {
	return &ResendProvider{
		apiKey:   cfg.ResendAPIKey,
		from:     cfg.MailFrom,
		endpoint: resendEndpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (p *ResendProvider) Name() string { return config.MailProviderResend }

func (p *ResendProvider) Send(ctx context.Context, to, subject, html string) error {
	if p.apiKey == "" || p.from == "" {
		return fmt.Errorf("resend not configured")
	}

	buf, err := json.Marshal(resendEmail{
		From:    p.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("resend send failed: %s", resp.Status)
	}
	return nil
}

type SMTPProvider struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPProvider(cfg config.Config) *SMTPProvider {
	return &SMTPProvider{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
	}
}

func (p *SMTPProvider) Name() string { return config.MailProviderSMTP }

func (p *SMTPProvider) Send(ctx context.Context, to, subject, html string) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	msg := buildSMTPMessage(p.from, to, subject, html)

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, p.from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// headerValue drops line breaks so request fields cannot add headers.
func headerValue(value string) string {
	return strings.Join(strings.FieldsFunc(value, func(r rune) bool {
		return r == '\r' || r == '\n'
	}), " ")
}

// buildSMTPMessage writes the headers and HTML body. Non-ASCII subjects are RFC 2047
// Q-encoded; ASCII ones pass through unchanged.
func buildSMTPMessage(from, to, subject, html string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&msg, "To: %s\r\n", headerValue(to))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	msg.WriteString(html)
	msg.WriteString("\r\n")
	return msg.Bytes()
}

// LogProvider writes the email to the log instead of sending it.
type LogProvider struct {
	log logger.Logger
}

func NewLogProvider() *LogProvider {
	return &LogProvider{log: logger.New("LogMailProvider")}
}

func (p *LogProvider) Name() string { return config.MailProviderLog }

func (p *LogProvider) Send(ctx context.Context, to, subject, html string) error {
	p.log.Function("Send").Info("Email not sent, log provider active", "to", to, "subject", subject, "bytes", len(html))
	return nil
}
