package entity

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidEmail = errors.New("email is not valid")
	ErrNameRequired = errors.New("name is required")
)

var emailPattern = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`)

// ValidEmail reports whether s matches the address pattern accepted at signup.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// NormalizeEmail trims and lowercases an address before lookup or storage.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// User is the aggregate root for the user domain. It owns the embedded Cart.
//
// PasswordHash holds a bcrypt hash and Version the optimistic concurrency
// token; neither is ever part of a JSON view.
type User struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	PasswordHash  string         `json:"-"`
	IsAdmin       bool           `json:"isAdmin"`
	Cart          Cart           `json:"cart"`
	Notifications []Notification `json:"notifications"`
	Orders        []string       `json:"orders"`
	Version       int64          `json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Notification is an entry in a user's ordered notification feed.
type Notification struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

const NotificationUnread = "unread"

// NewUser builds a user with defaults: not admin, empty cart, no notifications or orders.
func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	now := time.Now().UTC()
	return &User{
		Name:          name,
		Email:         email,
		Cart:          NewCart(),
		Notifications: []Notification{},
		Orders:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}
