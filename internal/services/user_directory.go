package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/models"
	"gorm.io/gorm"
)

// SQLUserDirectory applies sanctions against the users table. It is the only
// writer of the suspension fields.
type SQLUserDirectory struct {
	db *gorm.DB
}

func NewSQLUserDirectory(db *gorm.DB) *SQLUserDirectory {
	return &SQLUserDirectory{db: db}
}

func (d *SQLUserDirectory) Suspend(ctx context.Context, userID uuid.UUID, until time.Time) error {
	result := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_suspended":       true,
			"suspension_expires": until,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to suspend user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (d *SQLUserDirectory) ClearSuspension(ctx context.Context, userID uuid.UUID) error {
	result := d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_suspended":       false,
			"suspension_expires": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to clear suspension: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
