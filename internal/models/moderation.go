package models

// ReportStatus is the review state of a report. The set is closed; the
// workflow engine matches on it exhaustively.
type ReportStatus string

const (
	StatusNew       ReportStatus = "NEW"
	StatusInReview  ReportStatus = "IN_REVIEW"
	StatusActioned  ReportStatus = "ACTIONED"
	StatusEscalated ReportStatus = "ESCALATED"
	StatusResolved  ReportStatus = "RESOLVED"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInReview, StatusActioned, StatusEscalated, StatusResolved:
		return true
	}
	return false
}

// ModerationAction is an operation a moderator requests against a report.
type ModerationAction string

const (
	ActionApprove       ModerationAction = "APPROVE"
	ActionReject        ModerationAction = "REJECT"
	ActionEscalate      ModerationAction = "ESCALATE"
	ActionInReview      ModerationAction = "IN_REVIEW"
	ActionAssign        ModerationAction = "ASSIGN"
	ActionAddNote       ModerationAction = "ADD_NOTE"
	ActionDeleteContent ModerationAction = "DELETE_CONTENT"
	ActionSanctionUser  ModerationAction = "SANCTION_USER"
)

func (a ModerationAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionEscalate, ActionInReview,
		ActionAssign, ActionAddNote, ActionDeleteContent, ActionSanctionUser:
		return true
	}
	return false
}

// ReportType identifies what kind of entity was flagged.
type ReportType string

const (
	TypeEvent   ReportType = "EVENT"
	TypePost    ReportType = "POST"
	TypeComment ReportType = "COMMENT"
	TypeUser    ReportType = "USER"
	TypeMedia   ReportType = "MEDIA"
)

func (t ReportType) Valid() bool {
	switch t {
	case TypeEvent, TypePost, TypeComment, TypeUser, TypeMedia:
		return true
	}
	return false
}

// Resolution is the terminal outcome recorded on an ACTIONED or RESOLVED report.
type Resolution string

const (
	ResolutionApproved       Resolution = "APPROVED"
	ResolutionRejected       Resolution = "REJECTED"
	ResolutionContentDeleted Resolution = "CONTENT_DELETED"
	ResolutionUserSanctioned Resolution = "USER_SANCTIONED"
)

func (r Resolution) Valid() bool {
	switch r {
	case ResolutionApproved, ResolutionRejected, ResolutionContentDeleted, ResolutionUserSanctioned:
		return true
	}
	return false
}

// SanctionType selects the punitive measure applied by SANCTION_USER.
// Any type other than SUSPEND clears an existing suspension.
type SanctionType string

const (
	SanctionSuspend SanctionType = "SUSPEND"
	SanctionWarn    SanctionType = "WARN"
)

func (s SanctionType) Valid() bool {
	switch s {
	case SanctionSuspend, SanctionWarn:
		return true
	}
	return false
}
