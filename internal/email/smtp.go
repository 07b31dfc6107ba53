package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"realty_agent_backend/internal/leadstore"
	"realty_agent_backend/platform/config"
)

// SMTPSender delivers lead summaries over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	toEmail   string
}

// NewSMTPSender creates a sender from the email configuration.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromEmail: cfg.GetEmailFromAddress(),
		toEmail:   cfg.GetEmailToAddress(),
	}
}

// SendLeadSummary emails the lead details to the sales inbox.
func (s *SMTPSender) SendLeadSummary(ctx context.Context, lead leadstore.Lead) error {
	content, err := renderLeadSummary(lead)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("New lead: %s (%s)", displayName(lead), leadOutcome(lead))
	return s.send(ctx, subject, content)
}

func (s *SMTPSender) send(ctx context.Context, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat("RealtyAssistant", s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(s.toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func displayName(lead leadstore.Lead) string {
	if lead.Name != nil && *lead.Name != "" {
		return *lead.Name
	}
	return "Anonymous visitor"
}

func leadOutcome(lead leadstore.Lead) string {
	if lead.Qualified {
		return "qualified"
	}
	return "not qualified"
}
