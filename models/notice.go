package models

import "time"

// Notice variants
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Event types delivered on the notice stream
const (
	EventNotice  = "notice"
	EventBalance = "balance"
	EventLayout  = "layout"
)

// Notice is a user-visible toast.
type Notice struct {
	Variant     string `json:"variant"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Event is one message on a user's notice stream.
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"-"`
	Notice *Notice   `json:"notice,omitempty"`
	Coins  *int      `json:"coins,omitempty"`
	Order  []string  `json:"order,omitempty"`
	SentAt time.Time `json:"sent_at"`
}
