package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the caller's authorization role as asserted by the auth gateway
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated caller attached to every request
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the caller has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccess reports whether the caller owns the resource or is an admin
func (i Identity) CanAccess(ownerID uuid.UUID) bool {
	return i.UserID == ownerID || i.IsAdmin()
}

// Source is the acquisition channel recorded at registration
type Source string

const (
	SourceWeb         Source = "web"
	SourceEmail       Source = "email"
	SourceSocialMedia Source = "social_media"
	SourceReferral    Source = "referral"
	SourceDirect      Source = "direct"
	SourceOther       Source = "other"
	SourceFacebook    Source = "facebook"
	SourceInstagram   Source = "instagram"
	SourceGoogle      Source = "google"
)

// User holds the profile fields this subsystem needs plus the lead score
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,min=1,max=100"`
	Email     string    `json:"email" db:"email" validate:"required,email"`
	Source    Source    `json:"source" db:"source" validate:"omitempty,oneof=web email social_media referral direct other facebook instagram google"`
	Score     int       `json:"score" db:"score"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user; ErrAlreadyExists on duplicate email
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// AdjustScore atomically adds delta to the user's score and returns the new value
	AdjustScore(ctx context.Context, id uuid.UUID, delta int) (int, error)
}
