package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types.
const (
	MessageDirect    = "direct"
	MessageBroadcast = "broadcast"
)

// Message priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is a known priority level.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Attachment is a file attached to a message, stored externally.
type Attachment struct {
	Filename string `bson:"filename" json:"filename"`
	URL      string `bson:"url" json:"url"`
	Size     int64  `bson:"size" json:"size"`
	Type     string `bson:"type" json:"type"`
}

// Message is an admin-to-user message. Broadcasts are fanned out: each
// recipient gets an independent document. IsRead and ReadAt move together;
// IsRead is true exactly when ReadAt is non-nil.
type Message struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Sender      primitive.ObjectID  `bson:"sender" json:"sender"`
	Recipient   *primitive.ObjectID `bson:"recipient,omitempty" json:"recipient,omitempty"`
	Type        string              `bson:"type" json:"type"`
	Subject     string              `bson:"subject" json:"subject"`
	Content     string              `bson:"content" json:"content"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	ReadAt      *time.Time          `bson:"readAt" json:"readAt"`
	Priority    string              `bson:"priority" json:"priority"`
	Attachments []Attachment        `bson:"attachments,omitempty" json:"attachments,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
