// Package channel holds the pure per-channel message formatters. Nothing
// in here performs I/O; identical input always yields identical output.
package channel

import (
	"fmt"

	"github.com/easymo/notify/internal/domain"
)

const (
	whatsappReplyHint = "_Reply to continue_"
	smsReplyHint      = "Reply to continue the conversation."

	// A formatted SMS longer than this would push the reply hint into an
	// extra segment, so the hint is dropped instead.
	smsHintBudget = 480
)

// ForWhatsApp renders a notification as WhatsApp rich text. The subject,
// when present, becomes a bold headline.
func ForWhatsApp(n domain.Notification) string {
	if n.Subject != "" {
		return fmt.Sprintf("*%s* ✅\n\n%s\n\n%s", n.Subject, n.Message, whatsappReplyHint)
	}
	return fmt.Sprintf("%s\n\n%s", n.Message, whatsappReplyHint)
}

// ForSMS renders a notification as plain text. The reply hint is appended
// only while the total stays within the segment budget.
func ForSMS(n domain.Notification) string {
	text := n.Message
	if n.Subject != "" {
		text = fmt.Sprintf("%s\n\n%s", n.Subject, n.Message)
	}

	withHint := fmt.Sprintf("%s\n\n%s", text, smsReplyHint)
	if len(withHint) <= smsHintBudget {
		return withHint
	}
	return text
}
