package smtp

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/config"
	"github.com/walleto-api/internal/domain"
	"gopkg.in/gomail.v2"
)

// sendFunc delivers a composed message. Swapped out in tests.
type sendFunc func(m *gomail.Message) error

// Mailer delivers one-time codes by email.
type Mailer struct {
	from    string
	codeTTL time.Duration
	send    sendFunc
}

func NewMailer(cfg *config.Config) *Mailer {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	return &Mailer{
		from:    cfg.SMTPFrom,
		codeTTL: cfg.Security.CodeTTL,
		send:    func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// Send composes and delivers the code. The SMTP exchange runs on its own
// goroutine so ctx bounds how long the caller waits for it.
func (m *Mailer) Send(ctx context.Context, address, code string, purpose domain.Purpose) error {
	msg, err := m.compose(address, code, purpose)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- m.send(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send otp email: %w", err)
		}
		log.Info().Str("to", address).Str("purpose", string(purpose)).Msg("otp email sent")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("otp email: %w", ctx.Err())
	}
}

func (m *Mailer) compose(address, code string, purpose domain.Purpose) (*gomail.Message, error) {
	action := purposeAction(purpose)
	var body strings.Builder
	if err := codeTemplate.Execute(&body, codeView{
		Action:  action,
		Code:    code,
		Minutes: int(m.codeTTL.Minutes()),
	}); err != nil {
		return nil, fmt.Errorf("render otp email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", address)
	msg.SetHeader("Subject", fmt.Sprintf("Your Walleto Verification Code - %s", code))
	msg.SetBody("text/plain", fmt.Sprintf("Use %s to %s. It is valid for %d minutes.", code, action, int(m.codeTTL.Minutes())))
	msg.AddAlternative("text/html", body.String())
	return msg, nil
}

func purposeAction(p domain.Purpose) string {
	switch p {
	case domain.PurposeSignup:
		return "sign up"
	case domain.PurposePasswordReset:
		return "reset your password"
	default:
		return "sign in"
	}
}

type codeView struct {
	Action  string
	Code    string
	Minutes int
}

var codeTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h1>Walleto</h1>
  <p>You requested to {{.Action}} to your Walleto account.</p>
  <p>Use the following verification code:</p>
  <div style="font-size: 40px; font-weight: bold; letter-spacing: 8px; color: #667eea;">{{.Code}}</div>
  <p>Valid for {{.Minutes}} minutes.</p>
  <p>If you didn't request this code, ignore this email. Never share this code with anyone.</p>
</body>
</html>
`))
