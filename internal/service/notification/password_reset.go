package notification

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jwalitptl/reset-mailer/internal/config"
	"github.com/jwalitptl/reset-mailer/internal/email"
	"github.com/jwalitptl/reset-mailer/internal/model"
	"github.com/jwalitptl/reset-mailer/internal/repository"
	"github.com/jwalitptl/reset-mailer/pkg/logger"
	"github.com/jwalitptl/reset-mailer/pkg/metrics"
)

const (
	ForgotPasswordTemplate = "emails/auth/forgot_password.html"
	ForgotPasswordSubject  = "Reset Your Password - Plane"

	resetPathFormat = "/accounts/reset-password/?uidb64=%s&token=%s"

	// MailConfigPrefix selects the mail settings in the configuration store.
	MailConfigPrefix = "EMAIL_"
)

// Mail configuration keys and the values used when a key is absent.
const (
	KeyHost     = "EMAIL_HOST"
	KeyPort     = "EMAIL_PORT"
	KeyUser     = "EMAIL_HOST_USER"
	KeyPassword = "EMAIL_HOST_PASSWORD"
	KeyUseTLS   = "EMAIL_USE_TLS"
	KeyUseSSL   = "EMAIL_USE_SSL"

	DefaultPort   = "587"
	DefaultUseTLS = "1"
	DefaultUseSSL = "0"
)

// PasswordResetNotifier sends the forgot-password email. It reads the mail
// configuration on every call and opens one connection per message.
type PasswordResetNotifier struct {
	renderer email.Renderer
	configs  repository.ConfigurationRepository
	dialer   email.Dialer
	from     string
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

// NewPasswordResetNotifier builds a notifier. m may be nil.
func NewPasswordResetNotifier(
	renderer email.Renderer,
	configs repository.ConfigurationRepository,
	dialer email.Dialer,
	settings *config.Settings,
	log *logger.Logger,
	m *metrics.Metrics,
) *PasswordResetNotifier {
	return &PasswordResetNotifier{
		renderer: renderer,
		configs:  configs,
		dialer:   dialer,
		from:     settings.EmailFrom,
		logger:   log.WithComponent("password_reset_notifier"),
		metrics:  m,
	}
}

// ResetURL appends the reset path to siteOrigin. Neither the origin nor the
// credentials are validated or escaped.
func ResetURL(siteOrigin, resetID, resetToken string) string {
	return siteOrigin + fmt.Sprintf(resetPathFormat, resetID, resetToken)
}

// Send renders and delivers the reset email to a single recipient. Every
// failure comes back as an *Error carrying the stage that failed.
func (n *PasswordResetNotifier) Send(ctx context.Context, firstName, to, resetID, resetToken, siteOrigin string) error {
	err := n.send(ctx, firstName, to, resetID, resetToken, siteOrigin)
	n.observe(err)
	return err
}

func (n *PasswordResetNotifier) send(ctx context.Context, firstName, to, resetID, resetToken, siteOrigin string) error {
	resetURL := ResetURL(siteOrigin, resetID, resetToken)

	htmlBody, err := n.renderer.Render(ForgotPasswordTemplate, map[string]interface{}{
		"first_name":          firstName,
		"forgot_password_url": resetURL,
	})
	if err != nil {
		return newError(KindTemplate, err)
	}
	textBody := email.StripTags(htmlBody)

	values, err := n.configs.ListByPrefix(ctx, MailConfigPrefix)
	if err != nil {
		return newError(KindConfiguration, err)
	}
	transportCfg, err := TransportConfigFrom(values)
	if err != nil {
		return newError(KindConfiguration, err)
	}

	transport, err := n.dialer.Dial(transportCfg)
	if err != nil {
		return newError(KindConnection, err)
	}
	defer func() {
		if cerr := transport.Close(); cerr != nil {
			n.logger.Debug("Failed to close mail transport", "error", cerr.Error())
		}
	}()

	msg := &email.Message{
		From:     n.from,
		To:       []string{to},
		Subject:  ForgotPasswordSubject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
	if err := transport.Send(msg); err != nil {
		return newError(KindSend, err)
	}

	n.logger.Debug("Password reset email sent", "host", transportCfg.Host, "port", transportCfg.Port)
	return nil
}

func (n *PasswordResetNotifier) observe(err error) {
	if n.metrics == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	n.metrics.MailDeliveries.WithLabelValues("forgot_password", status).Inc()
}

// TransportConfigFrom reads the SMTP parameters out of the store's values.
// Missing host and credentials become empty strings; port, TLS and SSL fall
// back to 587, enabled and disabled.
func TransportConfigFrom(values model.ConfigurationValues) (email.TransportConfig, error) {
	portRaw := values.Get(KeyPort, DefaultPort)
	port, err := strconv.Atoi(strings.TrimSpace(portRaw))
	if err != nil {
		return email.TransportConfig{}, fmt.Errorf("invalid %s %q: %w", KeyPort, portRaw, err)
	}

	return email.TransportConfig{
		Host:     values.Get(KeyHost, ""),
		Port:     port,
		Username: values.Get(KeyUser, ""),
		Password: values.Get(KeyPassword, ""),
		UseTLS:   parseFlag(values.Get(KeyUseTLS, DefaultUseTLS)),
		UseSSL:   parseFlag(values.Get(KeyUseSSL, DefaultUseSSL)),
	}, nil
}

// parseFlag treats any non-empty value other than an explicit "off" spelling
// as enabled.
func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "false", "f", "no", "n", "off", "":
		return false
	default:
		return true
	}
}
