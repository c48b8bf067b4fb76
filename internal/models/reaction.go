package models

import "time"

// Agreement marks that a user agrees with a published message. The composite
// unique index keeps it a set membership: a user either agrees or doesn't.
type Agreement struct {
	BaseModel
	MessageID string `gorm:"size:36;index;uniqueIndex:idx_agreement_message_user;not null" json:"messageId"`
	UserID    string `gorm:"size:36;uniqueIndex:idx_agreement_message_user;not null" json:"userId"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
}

// Comment is one entry in the append-only comment thread under a published
// message.
type Comment struct {
	BaseModel
	MessageID string `gorm:"size:36;index;not null" json:"messageId"`
	UserID    string `gorm:"size:36;index;not null" json:"userId"`
	Text      string `gorm:"type:text;not null" json:"text"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`
	User    *User    `gorm:"foreignKey:UserID" json:"-"`
}

// CommentView is a comment enriched with its author's display name for the
// public wall.
type CommentView struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}
