package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Users are referenced by every other
// entity as payer, group member, or payment party.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// FirstName and LastName are the user's profile name fields.
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Email is the user's email address (unique). Used for login and for
	// adding members to groups.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// Never serialized in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// NewUser creates a user with a generated ID and current timestamps.
func NewUser(email, firstName, lastName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Identity returns a copy of the user stripped to the fields exposed to
// other users (counterparties in balances, group member listings).
func (u *User) Identity() User {
	return User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
