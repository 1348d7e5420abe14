// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/virevo/virevo/internal/config"
)

const otpSubject = "Your verification code"

var otpHTML = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Verify your email</h2>
  <p>Use the code below to continue. It expires in {{.Minutes}} minutes.</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>If you did not request this code, you can ignore this email.</p>
</body>
</html>`))

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer sends OTP emails through an SMTP relay.
type Mailer struct {
	client dialer
	from   string
	otpTTL time.Duration
	logger *slog.Logger
}

// New creates a Mailer from the SMTP configuration.
func New(cfg config.SMTPConfig, otpTTL time.Duration, logger *slog.Logger) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return newMailer(client, cfg.From, otpTTL, logger), nil
}

func newMailer(client dialer, from string, otpTTL time.Duration, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{client: client, from: from, otpTTL: otpTTL, logger: logger.With("component", "mailer")}
}

// SendOTP emails code to the given address.
func (m *Mailer) SendOTP(ctx context.Context, to, code string) error {
	msg, err := m.otpMessage(to, code)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send OTP email", "error", err)
		return fmt.Errorf("failed to send otp email: %w", err)
	}
	m.logger.InfoContext(ctx, "OTP email sent")
	return nil
}

func (m *Mailer) otpMessage(to, code string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(otpSubject)

	data := struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(m.otpTTL.Minutes())}
	if err := msg.SetBodyHTMLTemplate(otpHTML, data); err != nil {
		return nil, fmt.Errorf("failed to render otp email: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextPlain,
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, data.Minutes))
	return msg, nil
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch name {
	case "opportunistic":
		return mail.TLSOpportunistic
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}
