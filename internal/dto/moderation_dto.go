package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/models"
)

// CreateReportRequest files a report. Exactly one subject id must be set,
// matching Type.
type CreateReportRequest struct {
	Type      string `json:"type"`
	EventID   string `json:"event_id,omitempty"`
	PostID    string `json:"post_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	MediaID   string `json:"media_id,omitempty"`
	Reason    string `json:"reason"`
}

// ApplyActionRequest is the body of the workflow engine's single mutation
// endpoint.
type ApplyActionRequest struct {
	Action               string     `json:"action"`
	Note                 string     `json:"note,omitempty"`
	AssignedToID         *uuid.UUID `json:"assigned_to_id,omitempty"`
	TargetUserID         *uuid.UUID `json:"target_user_id,omitempty"`
	SanctionType         string     `json:"sanction_type,omitempty"`
	SanctionDurationDays *int       `json:"sanction_duration_days,omitempty"`
}

type BlockUserRequest struct {
	BlockedID uuid.UUID `json:"blocked_id"`
}

// UserSummary is the identity slice the listing surface exposes. Suspension
// state is evaluated at read time.
type UserSummary struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Role              string     `json:"role"`
	Suspended         bool       `json:"suspended"`
	SuspensionExpires *time.Time `json:"suspension_expires,omitempty"`
}

func SummarizeUser(u *models.User) *UserSummary {
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	return &UserSummary{
		ID:                u.ID,
		Email:             u.Email,
		Role:              u.Role,
		Suspended:         u.SuspensionActive(time.Now()),
		SuspensionExpires: u.SuspensionExpires,
	}
}
