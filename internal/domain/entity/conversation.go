package entity

// Conversation is the inbox row for one counterpart. It is derived from
// messages on every request and never stored.
type Conversation struct {
	Counterpart *UserSummary `json:"counterpart"`
	LastMessage *Message     `json:"last_message"`
	Ad          *AdSummary   `json:"ad,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
