package models

import "time"

// Notification is one entry in the notification tray.
type Notification struct {
	ID        ID         `json:"id"`
	Type      string     `json:"type"`
	Actor     PostAuthor `json:"actor"`
	Message   string     `json:"message"`
	TargetID  ID         `json:"targetId,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"createdAt"`
}

// UserPage is a paginated slice of users (followers, following, search).
type UserPage struct {
	Content    []User     `json:"content"`
	Pagination Pagination `json:"pagination"`
}

// NotificationPage is a paginated slice of notifications.
type NotificationPage struct {
	Content    []Notification `json:"content"`
	Pagination Pagination     `json:"pagination"`
}
