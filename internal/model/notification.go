package model

// Notification event types delivered over the push channel.
const (
	NotifPaymentFailed           = "payment.failed"
	NotifSubscribeFailed         = "subscribe.failed"
	NotifAccessGranted           = "access.granted"
	NotifAccessRevoked           = "access.revoked"
	NotifCardRequiresAction      = "card.requires.action"
	NotifSubscribeRequiresAction = "subscribe.requires.action"
	NotifAccountLogout           = "account.logout"
)

// LogoutReasonSessionLimit marks a forced logout caused by too many
// simultaneous logins on the account.
const LogoutReasonSessionLimit = "sessions_limit"

// NotificationResource is the payload attached to a push event.
type NotificationResource struct {
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// NotificationEvent is one inbound push message. Events are consumed once
// and never persisted.
type NotificationEvent struct {
	Type     string               `json:"type"`
	Resource NotificationResource `json:"resource"`
}
