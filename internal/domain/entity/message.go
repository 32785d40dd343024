package entity

import (
	"sort"
	"strings"
	"time"
)

const (
	MaxMessageLength = 1000
)

// Message is a direct message between a buyer and a seller about one ad.
// Participants and PairKey only exist to make store queries cheap.
type Message struct {
	ID           string     `json:"id" firestore:"id" bson:"_id"`
	SenderID     string     `json:"sender_id" firestore:"senderId" bson:"senderId"`
	ReceiverID   string     `json:"receiver_id" firestore:"receiverId" bson:"receiverId"`
	AdID         string     `json:"ad_id" firestore:"adId" bson:"adId"`
	Content      string     `json:"content" firestore:"content" bson:"content"`
	Read         bool       `json:"read" firestore:"read" bson:"read"`
	ReadAt       *time.Time `json:"read_at" firestore:"readAt" bson:"readAt"`
	CreatedAt    time.Time  `json:"created_at" firestore:"createdAt" bson:"createdAt"`
	Participants []string   `json:"-" firestore:"participants" bson:"participants"`
	PairKey      string     `json:"-" firestore:"pairKey" bson:"pairKey"`
}

// Counterpart returns the other party of the message as seen by userID.
func (m *Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// IsUnreadFor reports whether userID received m and has not read it yet.
func (m *Message) IsUnreadFor(userID string) bool {
	return m.ReceiverID == userID && !m.Read
}

// MarkRead flips the read flag once. It reports false when m was already read.
func (m *Message) MarkRead(at time.Time) bool {
	if m.Read {
		return false
	}
	m.Read = true
	m.ReadAt = &at
	return true
}

// PairKey is order independent: PairKey(a, b) == PairKey(b, a).
func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

func NewMessage(senderID, receiverID, adID, content string) *Message {
	return &Message{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		AdID:         adID,
		Content:      content,
		Participants: []string{senderID, receiverID},
		PairKey:      PairKey(senderID, receiverID),
	}
}
