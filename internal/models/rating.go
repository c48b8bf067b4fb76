package models

// RatingType selects which of the two reputation counters a rating feeds.
type RatingType string

const (
	RatingTypeValue RatingType = "VALUE"
	RatingTypeLove  RatingType = "LOVE"
)

// Rating holds the single rating attached to a message. The unique index on
// MessageID is what makes "rate again" an update instead of a second row;
// without it a resubmission would double-credit the sender.
type Rating struct {
	BaseModel
	MessageID string     `gorm:"size:36;uniqueIndex;not null" json:"messageId"`
	Score     int        `gorm:"not null" json:"score"`
	Type      RatingType `gorm:"size:10;not null" json:"type"`

	Message *Message `gorm:"foreignKey:MessageID" json:"-"`
}

// DimensionForMessageType maps a message type to the reputation counter its
// rating affects. Praise feeds the love score; feedback and advice feed the
// value score.
func DimensionForMessageType(t MessageType) RatingType {
	if t == MessageTypePraise {
		return RatingTypeLove
	}
	return RatingTypeValue
}

// ScoreColumn returns the users table column a rating type increments.
func (t RatingType) ScoreColumn() string {
	if t == RatingTypeLove {
		return "love_score"
	}
	return "value_score"
}
