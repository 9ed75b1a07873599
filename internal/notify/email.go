package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finflow/internal/calendar"
	"github.com/Dan9191/finflow/internal/config"
	"github.com/Dan9191/finflow/internal/models"
)

// Transport delivers a composed e-mail.
type Transport interface {
	Send(e *email.Email) error
}

type smtpTransport struct {
	addr string
	auth smtp.Auth
}

func (t smtpTransport) Send(e *email.Email) error {
	return e.Send(t.addr, t.auth)
}

// NewSMTPTransport sends through the configured SMTP server. Authentication is
// skipped when no username is set.
func NewSMTPTransport(cfg *config.Config) Transport {
	t := smtpTransport{addr: fmt.Sprintf("%s:%s", cfg.SMTPHost, cfg.SMTPPort)}
	if cfg.SMTPUsername != "" {
		t.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return t
}

// Sender handles sending alert e-mails
type Sender struct {
	from      string
	transport Transport
	logger    *logrus.Logger
}

// NewSender creates a new e-mail sender
func NewSender(cfg *config.Config, transport Transport, logger *logrus.Logger) *Sender {
	return &Sender{
		from:      cfg.SenderEmail,
		transport: transport,
		logger:    logger,
	}
}

// SendAlerts mails a digest of alerts to a user. Nothing is sent for an empty list.
func (s *Sender) SendAlerts(to, name string, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	e := compose(s.from, to, name, alerts)
	if err := s.transport.Send(e); err != nil {
		s.logger.Errorf("Failed to send alerts to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func compose(from, to, name string, alerts []models.Alert) *email.Email {
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}

	urgent := 0
	for _, a := range alerts {
		if a.Level == models.AlertError {
			urgent++
		}
	}
	switch {
	case urgent > 0:
		e.Subject = fmt.Sprintf("Action needed: %d urgent payment alert(s)", urgent)
	default:
		e.Subject = "Upcoming payment reminders"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Dear %s,\n\n", name)
	body.WriteString("Here is what needs your attention:\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&body, "[%s] %s  %s\n", strings.ToUpper(string(a.Level)), a.Date.Format(calendar.DateLayout), a.Message)
	}
	body.WriteString("\nBest regards,\nfinflow")
	e.Text = []byte(body.String())
	return e
}
