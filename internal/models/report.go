package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a flagged entity moving through moderation review. Exactly one
// subject reference is set, matching Type. Reports are never deleted;
// RESOLVED is an archival state.
type Report struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type       ReportType   `gorm:"not null;size:20;index" json:"type"`
	EventID    *string      `gorm:"size:255;index" json:"event_id,omitempty"`
	PostID     *string      `gorm:"size:255;index" json:"post_id,omitempty"`
	CommentID  *string      `gorm:"size:255;index" json:"comment_id,omitempty"`
	UserID     *string      `gorm:"size:255;index" json:"user_id,omitempty"`
	MediaID    *string      `gorm:"size:255;index" json:"media_id,omitempty"`
	ReporterID uuid.UUID    `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Reason     string       `gorm:"not null;size:500" json:"reason"`
	Status     ReportStatus `gorm:"not null;default:'NEW';size:20;index" json:"status"`
	Resolution *Resolution  `gorm:"size:30" json:"resolution,omitempty"`

	// AssignedToID is the moderator working the report. It never doubles as
	// a sanction target; SANCTION_USER carries its own target parameter.
	AssignedToID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id,omitempty"`

	// Version guards every mutation with a compare-and-swap.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reporter User  `gorm:"foreignKey:ReporterID" json:"-"`
	Assignee *User `gorm:"foreignKey:AssignedToID" json:"-"`
}

// SubjectRef returns the subject reference matching the report's type.
func (r *Report) SubjectRef() (string, bool) {
	var ref *string
	switch r.Type {
	case TypeEvent:
		ref = r.EventID
	case TypePost:
		ref = r.PostID
	case TypeComment:
		ref = r.CommentID
	case TypeUser:
		ref = r.UserID
	case TypeMedia:
		ref = r.MediaID
	}
	if ref == nil || *ref == "" {
		return "", false
	}
	return *ref, true
}

// Terminal reports whether the resolution invariant requires a non-null
// resolution for the report's current status.
func (r *Report) Terminal() bool {
	return r.Status == StatusResolved || r.Status == StatusActioned
}
