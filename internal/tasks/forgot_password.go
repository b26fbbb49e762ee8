package tasks

import (
	"context"
	"fmt"

	"github.com/jwalitptl/reset-mailer/internal/config"
	"github.com/jwalitptl/reset-mailer/internal/model"
	apperrors "github.com/jwalitptl/reset-mailer/pkg/errors"
	"github.com/jwalitptl/reset-mailer/pkg/logger"
	"github.com/jwalitptl/reset-mailer/pkg/metrics"
	"github.com/jwalitptl/reset-mailer/pkg/tracker"
)

const ForgotPasswordTask = "forgot_password"

// PasswordResetSender delivers the forgot-password email.
type PasswordResetSender interface {
	Send(ctx context.Context, firstName, email, resetID, resetToken, siteOrigin string) error
}

// ForgotPassword adapts sender to the dispatcher. The handler never fails:
// any error, including bad arguments or a panic, is printed when
// settings.Debug is on, reported to tr once, and the task ends normally.
func ForgotPassword(sender PasswordResetSender, tr tracker.Tracker, settings *config.Settings, log *logger.Logger, m *metrics.Metrics) HandlerFunc {
	log = log.WithComponent("forgot_password_task")

	return func(ctx context.Context, args []interface{}) error {
		err := run(ctx, func(ctx context.Context, args []interface{}) error {
			a, err := DecodeForgotPasswordArgs(args)
			if err != nil {
				return err
			}
			return sender.Send(ctx, a.FirstName, a.Email, a.UIDB64, a.Token, a.SiteOrigin)
		}, args)
		if err == nil {
			return nil
		}

		if settings.Debug {
			log.Error(err, "Failed to send password reset email")
		}
		tr.CaptureException(ctx, err)
		if m != nil {
			kind := tracker.KindOf(err)
			if kind == "" {
				kind = "unknown"
			}
			m.ErrorsCaptured.WithLabelValues(kind).Inc()
		}
		return nil
	}
}

// DecodeForgotPasswordArgs reads the five positional string arguments
// (first_name, email, uidb64, token, current_site). Values are not checked
// beyond their type.
func DecodeForgotPasswordArgs(args []interface{}) (model.ForgotPasswordArgs, error) {
	if len(args) != 5 {
		return model.ForgotPasswordArgs{}, apperrors.BadRequest(
			fmt.Sprintf("%s expects 5 arguments, got %d", ForgotPasswordTask, len(args)), nil)
	}

	strs := make([]string, len(args))
	for i, arg := range args {
		s, ok := arg.(string)
		if !ok {
			return model.ForgotPasswordArgs{}, apperrors.BadRequest(
				fmt.Sprintf("%s argument %d must be a string, got %T", ForgotPasswordTask, i, arg), nil)
		}
		strs[i] = s
	}

	return model.ForgotPasswordArgs{
		FirstName:  strs[0],
		Email:      strs[1],
		UIDB64:     strs[2],
		Token:      strs[3],
		SiteOrigin: strs[4],
	}, nil
}
