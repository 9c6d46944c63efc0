package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"

	"college-helpdesk-backend/internal/config"
)

// ConfirmationSender notifies an applicant that their submission was stored.
type ConfirmationSender interface {
	SendConfirmation(data ConfirmationData) error
}

type ConfirmationData struct {
	StudentEmail  string
	StudentName   string
	CourseName    string
	ApplicationID uint
	SubmittedAt   string
}

type SMTPConfirmationSender struct {
	config config.Config
}

func NewSMTPConfirmationSender(cfg config.Config) *SMTPConfirmationSender {
	return &SMTPConfirmationSender{config: cfg}
}

const confirmationHTMLTemplate = `<html><body>
<h3>Hello {{.StudentName}},</h3>
<p>Your application for <b>{{.CourseName}}</b> has been received.</p>
<ul>
<li>Application ID: {{.ApplicationID}}</li>
<li>Submitted at: {{.SubmittedAt}}</li>
</ul>
<p>We will contact you soon for the next steps.</p>
<hr>
<p><small>MIET Arts &amp; Science College, Trichy</small></p>
</body></html>`

const confirmationTextTemplate = `Hello {{.StudentName}},

Your application for {{.CourseName}} has been received.

Application ID: {{.ApplicationID}}
Submitted at: {{.SubmittedAt}}

We will contact you soon for the next steps.

MIET Arts & Science College, Trichy`

// SendConfirmation emails the applicant. Missing SMTP credentials are an
// error so the handler can report email_sent=false without failing the
// submission.
func (s *SMTPConfirmationSender) SendConfirmation(data ConfirmationData) error {
	if s.config.SMTPUser == "" || s.config.SMTPPass == "" {
		return fmt.Errorf("smtp credentials not configured")
	}
	if data.StudentEmail == "" {
		return fmt.Errorf("no recipient email")
	}

	subject := fmt.Sprintf("Success: %s Registration", data.CourseName)
	htmlBody, textBody, err := renderConfirmation(data)
	if err != nil {
		return fmt.Errorf("failed to render confirmation email: %w", err)
	}

	fromAddr := s.config.SMTPFrom
	if fromAddr == "" {
		fromAddr = s.config.SMTPUser
	}
	from := fmt.Sprintf("MIET Admissions <%s>", fromAddr)
	message := fmt.Sprintf(`From: %s
To: %s
Subject: %s
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="boundary123"

--boundary123
Content-Type: text/plain; charset=UTF-8

%s

--boundary123
Content-Type: text/html; charset=UTF-8

%s

--boundary123--`,
		from,
		data.StudentEmail,
		subject,
		textBody,
		htmlBody)

	auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPass, s.config.SMTPHost)
	addr := fmt.Sprintf("%s:%s", s.config.SMTPHost, s.config.SMTPPort)
	if err := smtp.SendMail(addr, auth, fromAddr, []string{data.StudentEmail}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}

	slog.Info("confirmation email sent", "to", data.StudentEmail, "application_id", data.ApplicationID)
	return nil
}

func renderConfirmation(data ConfirmationData) (htmlBody, textBody string, err error) {
	htmlT, err := template.New("html").Parse(confirmationHTMLTemplate)
	if err != nil {
		return "", "", err
	}
	textT, err := template.New("text").Parse(confirmationTextTemplate)
	if err != nil {
		return "", "", err
	}

	var htmlBuf, textBuf bytes.Buffer
	if err := htmlT.Execute(&htmlBuf, data); err != nil {
		return "", "", err
	}
	if err := textT.Execute(&textBuf, data); err != nil {
		return "", "", err
	}
	return htmlBuf.String(), textBuf.String(), nil
}
