// Package store implements the persistence operations for askline on top of
// GORM: users, questions, FAQ entries, and broadcast interactions.
package store

import (
	"fmt"
	"time"

	"github.com/openclass/askline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TouchUser upserts a user on contact: created on first sight, profile
// fields refreshed afterwards. The activity flag is left alone on update.
func TouchUser(gdb *gorm.DB, id, username, displayName string) error {
	if id == "" {
		return fmt.Errorf("store: user id is required")
	}

	u := models.User{
		ID:          id,
		Username:    username,
		DisplayName: displayName,
		IsActive:    true,
	}
	err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		return fmt.Errorf("store: touch user %s: %w", id, err)
	}
	return nil
}

// ActiveUsers returns all broadcast-eligible users.
func ActiveUsers(gdb *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := gdb.Where("is_active = ?", true).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("store: active users: %w", err)
	}
	return users, nil
}

// SetUserActive flips a user's broadcast eligibility. Users are never
// deleted, only deactivated.
func SetUserActive(gdb *gorm.DB, id string, active bool) error {
	result := gdb.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("store: set user %s active=%v: %w", id, active, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("store: user not found: %s", id)
	}
	return nil
}

// CountUsers returns the total number of known users.
func CountUsers(gdb *gorm.DB) (int64, error) {
	var n int64
	if err := gdb.Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count users: %w", err)
	}
	return n, nil
}

// CountActiveUsers returns the live number of broadcast-eligible users.
func CountActiveUsers(gdb *gorm.DB) (int64, error) {
	var n int64
	if err := gdb.Model(&models.User{}).Where("is_active = ?", true).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count active users: %w", err)
	}
	return n, nil
}

// CountUsersSince returns the number of users created at or after t.
func CountUsersSince(gdb *gorm.DB, t time.Time) (int64, error) {
	var n int64
	if err := gdb.Model(&models.User{}).Where("created_at >= ?", t).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count users since: %w", err)
	}
	return n, nil
}
