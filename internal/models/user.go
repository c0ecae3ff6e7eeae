// Package models defines the GORM models for askline.
package models

import "time"

// User is a chat-platform user known to the bot. Users are created on first
// contact and never hard-deleted; IsActive gates broadcast eligibility.
type User struct {
	ID          string `gorm:"primaryKey;size:64"`
	Username    string `gorm:"size:64;index"`
	DisplayName string `gorm:"size:128"`
	IsActive    bool   `gorm:"default:true;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
