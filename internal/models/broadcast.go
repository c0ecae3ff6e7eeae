package models

import "time"

// Broadcast interaction action tags. Only reads exist today.
const ActionRead = "read"

// BroadcastInteraction records a single user action against a tracked
// broadcast. The composite primary key (BroadcastID, UserID) makes read
// recording idempotent: a second insert for the same pair conflicts and is
// dropped.
type BroadcastInteraction struct {
	BroadcastID string `gorm:"primaryKey;size:16"`
	UserID      string `gorm:"primaryKey;size:64"`
	Action      string `gorm:"size:16;default:read"`
	CreatedAt   time.Time
}
