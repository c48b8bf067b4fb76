package models

import (
	"time"
)

// MessageType classifies what kind of feedback a message carries and
// therefore which reputation counter a rating on it affects.
type MessageType string

const (
	MessageTypePraise   MessageType = "praise"
	MessageTypeFeedback MessageType = "feedback"
	MessageTypeAdvice   MessageType = "advice"
)

// ValidMessageType reports whether t is one of the known message types.
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypePraise, MessageTypeFeedback, MessageTypeAdvice:
		return true
	}
	return false
}

// MessageState is the derived lifecycle state of a message. It is never
// stored; it is recomputed from AvailableAt on every read.
type MessageState string

const (
	MessageStateCooling   MessageState = "COOLING"
	MessageStateDelivered MessageState = "DELIVERED"
)

// Message represents one piece of feedback sent between users.
//
// RecipientID is resolved against the user table once, at send time. A
// recipient who registers later is never retroactively linked.
type Message struct {
	BaseModel
	SenderID       string      `gorm:"size:36;index;not null" json:"senderId"`
	RecipientPhone string      `gorm:"size:20;index;not null" json:"recipientPhone"`
	RecipientID    *string     `gorm:"size:36;index" json:"recipientId,omitempty"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	ActionPoint    string      `gorm:"type:text" json:"actionPoint,omitempty"`
	Type           MessageType `gorm:"size:20;not null" json:"type"`
	IsAnonymous    bool        `gorm:"default:false" json:"isAnonymous"`
	IsPublic       bool        `gorm:"default:false" json:"isPublic"`

	// Delivery gate: the message stays editable by the sender and hidden
	// from the recipient until this instant.
	AvailableAt time.Time `gorm:"not null;index" json:"availableAt"`

	// Relations
	Sender     User        `gorm:"foreignKey:SenderID" json:"-"`
	Recipient  *User       `gorm:"foreignKey:RecipientID" json:"-"`
	Rating     *Rating     `gorm:"foreignKey:MessageID" json:"rating,omitempty"`
	Agreements []Agreement `gorm:"foreignKey:MessageID" json:"agreements,omitempty"`
	Comments   []Comment   `gorm:"foreignKey:MessageID" json:"comments,omitempty"`
}

// State derives the lifecycle state at the given instant. Pure function of
// (AvailableAt, now).
func (m *Message) State(now time.Time) MessageState {
	if now.Before(m.AvailableAt) {
		return MessageStateCooling
	}
	return MessageStateDelivered
}

// MessageView is a recipient-facing projection of a message. Content is
// withheld while the message is cooling, and the sender identity is
// withheld for anonymous messages.
type MessageView struct {
	ID          string       `json:"id"`
	Content     string       `json:"content,omitempty"`
	ActionPoint string       `json:"actionPoint,omitempty"`
	Type        MessageType  `json:"type"`
	State       MessageState `json:"state"`
	IsAnonymous bool         `json:"isAnonymous"`
	IsPublic    bool         `json:"isPublic"`
	SenderName  string       `json:"senderName,omitempty"`
	SenderPhone string       `json:"senderPhone,omitempty"`
	Rating      *Rating      `json:"rating,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	AvailableAt time.Time    `json:"availableAt"`
}

// RecipientView builds the projection shown to the message's recipient.
// The recipient can always see that the message exists; content and the
// action point appear only once delivered.
func (m *Message) RecipientView(now time.Time) MessageView {
	view := MessageView{
		ID:          m.ID,
		Type:        m.Type,
		State:       m.State(now),
		IsAnonymous: m.IsAnonymous,
		IsPublic:    m.IsPublic,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
		AvailableAt: m.AvailableAt,
	}
	if view.State == MessageStateDelivered {
		view.Content = m.Content
		view.ActionPoint = m.ActionPoint
	}
	if !m.IsAnonymous {
		view.SenderName = m.Sender.DisplayName()
		view.SenderPhone = m.Sender.PhoneNumber
	}
	return view
}
