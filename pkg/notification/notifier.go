package notification

// NotificationSystem represents a delivery channel (e.g., email, SMS).
type NotificationSystem string

// NoticeType represents a kind of notice (e.g., "account_validation").
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"

	// AccountValidationNotice is sent after signup with the validation link.
	AccountValidationNotice NoticeType = "account_validation"

	// AccountRecoveryNotice is sent on account deletion with the recovery link.
	AccountRecoveryNotice NoticeType = "account_recovery"

	// PasswordResetNotice is sent on password reset request with the reset link.
	PasswordResetNotice NoticeType = "password_reset"
)

// NotificationData carries the recipient and the template data of one notice.
type NotificationData struct {
	To      string            // Recipient identifier (e.g., email address)
	Subject string            // Optional: overrides the template subject
	Body    string            // Optional: plain body when no template applies
	Data    map[string]string // Template data
}

// NoticeTemplate holds the subject and bodies of a registered notice.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

// Notifier sends a rendered notice through one delivery channel.
type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
