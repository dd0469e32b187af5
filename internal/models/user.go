package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account known to the moderation backend: reporters, moderators
// and sanction targets. Suspension fields are mutated only through the
// sanction path, never directly.
type User struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email             string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password          string         `gorm:"not null" json:"-"`
	Role              string         `gorm:"size:20;default:'user'" json:"role"`
	IsSuspended       bool           `gorm:"not null;default:false" json:"is_suspended"`
	SuspensionExpires *time.Time     `json:"suspension_expires,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// SuspensionActive evaluates the suspension at read time. Expiry is not
// enforced by any scheduler; an elapsed suspension simply stops counting.
func (u *User) SuspensionActive(now time.Time) bool {
	if !u.IsSuspended {
		return false
	}
	if u.SuspensionExpires == nil {
		return true
	}
	return now.Before(*u.SuspensionExpires)
}
