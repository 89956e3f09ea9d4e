package model

import "time"

type NotificationCode string

const (
	NotificationSubscriptionActivated  NotificationCode = "SUBSCRIPTION_ACTIVATED"
	NotificationSubscriptionExpiring3D NotificationCode = "SUBSCRIPTION_EXPIRING_3D"
	NotificationSubscriptionExpired    NotificationCode = "SUBSCRIPTION_EXPIRED"
	NotificationExpertAnswerReady      NotificationCode = "EXPERT_ANSWER_READY"
	NotificationPaymentDeclined        NotificationCode = "PAYMENT_DECLINED"
)

// Notification is persisted exactly once per UniqueKey. Callers encode the
// semantic event into the key (code + user + a value that changes only when the
// event should legitimately recur, e.g. an expiry timestamp).
type Notification struct {
	ID        string // UUID
	UserID    string
	Code      NotificationCode
	UniqueKey string
	Title     string
	Text      string
	CtaLabel  string
	CtaURL    string
	Meta      map[string]interface{}
	CreatedAt time.Time
}

// NotificationTemplate holds the per-code defaults applied when the caller does
// not override a field.
type NotificationTemplate struct {
	Title    string
	Text     string
	CtaLabel string
	CtaURL   string
}

// NotificationTemplates is the closed set of known template codes.
var NotificationTemplates = map[NotificationCode]NotificationTemplate{
	NotificationSubscriptionActivated: {
		Title:    "Subscription activated",
		Text:     "Your subscription is active. Enjoy full access to all courses and materials.",
		CtaLabel: "Start learning",
		CtaURL:   "/courses",
	},
	NotificationSubscriptionExpiring3D: {
		Title:    "Subscription expires in 3 days",
		Text:     "Your subscription expires soon. Renew now to keep access without interruption.",
		CtaLabel: "Renew",
		CtaURL:   "/packages",
	},
	NotificationSubscriptionExpired: {
		Title:    "Subscription expired",
		Text:     "Your subscription has expired. Renew to regain access to your courses.",
		CtaLabel: "Renew",
		CtaURL:   "/packages",
	},
	NotificationExpertAnswerReady: {
		Title:    "Expert answer ready",
		Text:     "An expert has answered your question.",
		CtaLabel: "Read answer",
		CtaURL:   "/questions",
	},
	NotificationPaymentDeclined: {
		Title:    "Payment declined",
		Text:     "Your payment was declined by the bank. No money was charged.",
		CtaLabel: "Try again",
		CtaURL:   "/packages",
	},
}
