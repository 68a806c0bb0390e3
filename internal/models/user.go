package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a vehicle owner. Only the fields the prediction engine
// reads are mapped; account management lives elsewhere.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	FullName       string             `bson:"full_name" json:"full_name"`
	PhoneNumber    string             `bson:"phone_number,omitempty" json:"phone_number,omitempty"`
	TelegramChatID string             `bson:"telegram_chat_id,omitempty" json:"telegram_chat_id,omitempty"`
	IsActive       bool               `bson:"is_active" json:"is_active"`
	LastLogin      *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// NotificationChannel returns the linked Telegram chat, or "" when the user
// never connected one.
func (u *User) NotificationChannel() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.TelegramChatID)
}

// DisplayName returns the name used when addressing the user in messages.
func (u *User) DisplayName() string {
	if u == nil || strings.TrimSpace(u.FullName) == "" {
		return "Driver"
	}
	return strings.TrimSpace(u.FullName)
}
