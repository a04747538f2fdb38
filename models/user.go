package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a farmer or extension worker identified by their Firebase UID.
// Profile fields stay empty until the user completes onboarding.
type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	FirebaseUID string    `json:"firebase_uid" db:"firebase_uid"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	Name        string    `json:"name" db:"name"`
	Role        string    `json:"role" db:"role"`
	State       string    `json:"state" db:"state"`
	City        string    `json:"city" db:"city"`
	Language    string    `json:"language" db:"language"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a user with an empty profile.
func NewUser(firebaseUID string, phone *string) *User {
	now := time.Now().UTC()
	return &User{
		ID:          uuid.New(),
		FirebaseUID: firebaseUID,
		Phone:       phone,
		Language:    DefaultLanguage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// DefaultLanguage is the BCP-47 code used when a user has not picked one.
const DefaultLanguage = "ta-IN"

// IsProfileComplete reports whether name, role, state and city are all set.
// Whitespace-only values count as empty.
func (u *User) IsProfileComplete() bool {
	for _, v := range []string{u.Name, u.Role, u.State, u.City} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ProfileUpdate carries the optional fields a user may change. Nil means unchanged.
type ProfileUpdate struct {
	Name     *string
	Role     *string
	State    *string
	City     *string
	Language *string
}

// Apply copies the non-nil fields onto the user and bumps UpdatedAt.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		u.Role = strings.TrimSpace(*p.Role)
	}
	if p.State != nil {
		u.State = strings.TrimSpace(*p.State)
	}
	if p.City != nil {
		u.City = strings.TrimSpace(*p.City)
	}
	if p.Language != nil {
		u.Language = strings.TrimSpace(*p.Language)
	}
	u.UpdatedAt = time.Now().UTC()
}
