package domain

type UserID string

type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// Settings are owned by the host; the orchestrator only reads them.
type Settings struct {
	NotificationDisabled bool `json:"notificationDisabled"`
}
