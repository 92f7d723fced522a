package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/metrics"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridHost = "https://api.sendgrid.com"

type EmailMessage struct {
	FromName  string
	ToName    string
	ToEmail   string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer delivers a single transactional email.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type SendGridMailer struct {
	apiKey    string
	host      string
	fromEmail string
	fromName  string
}

func NewSendGridMailer(settings config.SendGridSettings) (*SendGridMailer, error) {
	if settings.APIKey == "" {
		return nil, ErrNotConfigured
	}

	return &SendGridMailer{
		apiKey:    settings.APIKey,
		host:      sendGridHost,
		fromEmail: settings.FromEmail,
		fromName:  settings.FromName,
	}, nil
}

// WithHost points the mailer at another API host; tests use an httptest server.
func (m *SendGridMailer) WithHost(host string) *SendGridMailer {
	m.host = host
	return m
}

func (m *SendGridMailer) Send(ctx context.Context, msg EmailMessage) (err error) {
	defer func() { metrics.ObserveCall("sendgrid", err) }()

	fromName := m.fromName
	if msg.FromName != "" {
		fromName = msg.FromName
	}

	html := msg.HTML
	if html == "" {
		html = PlainToHTML(msg.PlainText)
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(fromName, m.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.ToEmail),
		msg.PlainText,
		html,
	)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return &UpstreamError{Service: "sendgrid", StatusCode: response.StatusCode, Body: truncate(response.Body, 512)}
	}

	return nil
}

// EmailTemplateData is available to subject and body templates as {{.CreatorName}} etc.
type EmailTemplateData struct {
	CreatorName string
	BrandName   string
	SenderName  string
	Link        string
}

// RenderEmailTemplate executes a user-authored subject or body template.
func RenderEmailTemplate(tmpl string, data EmailTemplateData) (string, error) {
	t, err := texttemplate.New("email").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	return buf.String(), nil
}

var htmlLayout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html><body style="font-family:Helvetica,Arial,sans-serif;line-height:1.5;color:#111">
{{range .}}<p>{{.}}</p>
{{end}}</body></html>`))

// PlainToHTML wraps paragraphs of plain text in an escaped HTML layout.
func PlainToHTML(text string) string {
	var paragraphs []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var buf bytes.Buffer
	if err := htmlLayout.Execute(&buf, paragraphs); err != nil {
		return text
	}
	return buf.String()
}

func SigningRequestEmail(recipientName, recipientEmail, brandName, contractTitle, link string) EmailMessage {
	body := fmt.Sprintf("Hi %s,\n\n%s has sent you \"%s\" to review and sign.\n\nOpen the document here: %s\n\nThis link is personal to you, please do not forward it.",
		recipientName, brandName, contractTitle, link)

	return EmailMessage{
		FromName:  brandName,
		ToName:    recipientName,
		ToEmail:   recipientEmail,
		Subject:   fmt.Sprintf("Please sign: %s", contractTitle),
		PlainText: body,
	}
}

func ContractCompletedEmail(recipientName, recipientEmail, brandName, contractTitle, documentURL string) EmailMessage {
	body := fmt.Sprintf("Hi %s,\n\nEveryone has signed \"%s\" with %s.\n\nYou can download the document here: %s",
		recipientName, contractTitle, brandName, documentURL)

	return EmailMessage{
		FromName:  brandName,
		ToName:    recipientName,
		ToEmail:   recipientEmail,
		Subject:   fmt.Sprintf("Completed: %s", contractTitle),
		PlainText: body,
	}
}
