package notice

import (
	"embed"
	"log/slog"

	"github.com/tendant/simple-account/pkg/notification"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// NewNotificationManager creates a notification manager with the account
// notices registered for email delivery.
func NewNotificationManager(smtpConfig notification.SMTPConfig) (*notification.NotificationManager, error) {
	notificationManager := notification.NewNotificationManager()

	emailNotifier, err := notification.NewEmailNotifier(smtpConfig)
	if err != nil {
		return nil, err
	}

	notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)

	if err := RegisterNotices(notificationManager); err != nil {
		return nil, err
	}

	return notificationManager, nil
}

// RegisterNotices registers the account notice templates on an existing
// manager. Split out so tests can pair the templates with a mock notifier.
func RegisterNotices(nm *notification.NotificationManager) error {
	err := nm.RegisterNotification(notification.AccountValidationNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Validate your account",
		Html:    loadTemplate("templates/email/account_validation.tmpl"),
	})
	if err != nil {
		return err
	}

	err = nm.RegisterNotification(notification.AccountRecoveryNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Recover your account",
		Html:    loadTemplate("templates/email/account_recovery.tmpl"),
	})
	if err != nil {
		return err
	}

	err = nm.RegisterNotification(notification.PasswordResetNotice, notification.EmailSystem, notification.NoticeTemplate{
		Subject: "Reset your password",
		Html:    loadTemplate("templates/email/password_reset.tmpl"),
	})
	if err != nil {
		return err
	}

	return nil
}
