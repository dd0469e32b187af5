package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trustdesk/backend/internal/config"
	"github.com/trustdesk/backend/internal/models"
	"gorm.io/gorm"
)

// RoleAuthorizer is the authorization oracle. It answers from two sources:
// 1. Config-based moderator emails/IDs
// 2. DB-based user Role field (admin or moderator)
// Both the workflow engine and the admin route gate consume it, so the
// capability check lives in exactly one place.
type RoleAuthorizer struct {
	db          *gorm.DB
	adminEmails []string
	adminIDs    []string
}

func NewRoleAuthorizer(db *gorm.DB, cfg *config.Config) *RoleAuthorizer {
	return &RoleAuthorizer{
		db:          db,
		adminEmails: parseCSV(cfg.AdminEmails),
		adminIDs:    parseCSV(cfg.AdminUserIDs),
	}
}

func (a *RoleAuthorizer) CanModerate(ctx context.Context, actor Actor) (bool, error) {
	if contains(a.adminEmails, actor.Email) || contains(a.adminIDs, actor.ID.String()) {
		return true, nil
	}

	var user models.User
	err := a.db.WithContext(ctx).First(&user, "id = ?", actor.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load actor: %w", err)
	}
	return user.Role == "admin" || user.Role == "moderator", nil
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
