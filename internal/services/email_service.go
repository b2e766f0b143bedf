package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/BradenHooton/useradmin/internal/models"
	pkglogger "github.com/BradenHooton/useradmin/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// PasswordChangeNotifier tells an account owner that an administrator set a new password.
type PasswordChangeNotifier interface {
	NotifyPasswordChanged(ctx context.Context, user *models.User) error
}

// NoopNotifier is used when email delivery is disabled.
type NoopNotifier struct{}

func (NoopNotifier) NotifyPasswordChanged(ctx context.Context, user *models.User) error {
	return nil
}

// sesSender is the part of the SES client the notifier uses.
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends notifications through AWS SES
type SESNotifier struct {
	client      sesSender
	fromAddress string
	logger      *slog.Logger
}

func NewSESNotifier(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSESNotifier(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

func newSESNotifier(client sesSender, fromAddress string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{
		client:      client,
		fromAddress: fromAddress,
		logger:      logger,
	}
}

func (n *SESNotifier) NotifyPasswordChanged(ctx context.Context, user *models.User) error {
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>Your password was changed</h2>
    <p>An administrator set a new password for the cluster account <strong>%s</strong>.</p>
    <p>If you did not expect this change, contact your cluster administrator.</p>
    <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`, html.EscapeString(user.Username))

	textBody := fmt.Sprintf(`Your password was changed

An administrator set a new password for the cluster account %s.

If you did not expect this change, contact your cluster administrator.

This is an automated message. Please do not reply to this email.
`, user.Username)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{user.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your cluster account password was changed"),
			},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(strings.TrimSpace(textBody))},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("password change notification sent",
		slog.String("username", user.Username),
		slog.String("email", pkglogger.SanitizedEmail(user.Email)),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}
