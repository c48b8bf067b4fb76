package models

import (
	"time"
)

// User represents a user in the system. Identity is the verified phone
// number; the OTP provider vouches for it before login ever reaches us.
type User struct {
	BaseModel
	PhoneNumber string `gorm:"uniqueIndex;size:20;not null" json:"phoneNumber"`
	Name        string `gorm:"size:100" json:"name,omitempty"`

	// Two independent reputation counters, selected by message type.
	// Corrections to an earlier rating can push these negative.
	ValueScore int `gorm:"default:0" json:"valueScore"`
	LoveScore  int `gorm:"default:0" json:"loveScore"`

	// One-way flag, set after the user finishes the intro tour.
	HasOnboarded bool `gorm:"default:false" json:"hasOnboarded"`

	// Relations (not always preloaded)
	RefreshTokens    []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
	SentMessages     []Message      `gorm:"foreignKey:SenderID" json:"-"`
	ReceivedMessages []Message      `gorm:"foreignKey:RecipientID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID           string    `json:"id"`
	PhoneNumber  string    `json:"phoneNumber"`
	Name         string    `json:"name,omitempty"`
	ValueScore   int       `json:"valueScore"`
	LoveScore    int       `json:"loveScore"`
	HasOnboarded bool      `json:"hasOnboarded"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Sanitize creates a UserSanitized struct from a User model.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:           u.ID,
		PhoneNumber:  u.PhoneNumber,
		Name:         u.Name,
		ValueScore:   u.ValueScore,
		LoveScore:    u.LoveScore,
		HasOnboarded: u.HasOnboarded,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// DisplayName returns the user's name, or "Someone" when they never set one.
// Used in notification templates and anonymous-safe views.
func (u *User) DisplayName() string {
	if u.Name == "" {
		return "Someone"
	}
	return u.Name
}
