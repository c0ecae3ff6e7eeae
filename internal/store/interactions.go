package store

import (
	"fmt"
	"time"

	"github.com/openclass/askline/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reader is one entry in a broadcast's read sample.
type Reader struct {
	UserID      string
	DisplayName string
	ReadAt      time.Time
}

// BroadcastStats summarizes read receipts for one broadcast. TotalEligible
// is the live active-user count, so the ratio can exceed expectations if
// users deactivate after reading.
type BroadcastStats struct {
	BroadcastID   string
	ReadCount     int64
	TotalEligible int64
	Readers       []Reader
}

// RecordRead records a read receipt. Returns true when the receipt is new,
// false when this user already acknowledged this broadcast. Duplicate
// presses are absorbed by the composite primary key.
func RecordRead(gdb *gorm.DB, broadcastID, userID string) (bool, error) {
	interaction := models.BroadcastInteraction{
		BroadcastID: broadcastID,
		UserID:      userID,
		Action:      models.ActionRead,
	}
	result := gdb.Clauses(clause.OnConflict{DoNothing: true}).Create(&interaction)
	if result.Error != nil {
		return false, fmt.Errorf("store: record read %s/%s: %w", broadcastID, userID, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Stats returns read-receipt counts for a broadcast plus a bounded sample of
// readers, earliest first.
func Stats(gdb *gorm.DB, broadcastID string, sampleLimit int) (*BroadcastStats, error) {
	if sampleLimit <= 0 {
		sampleLimit = 20
	}

	stats := BroadcastStats{BroadcastID: broadcastID}

	err := gdb.Model(&models.BroadcastInteraction{}).
		Where("broadcast_id = ?", broadcastID).
		Count(&stats.ReadCount).Error
	if err != nil {
		return nil, fmt.Errorf("store: broadcast stats %s: %w", broadcastID, err)
	}

	stats.TotalEligible, err = CountActiveUsers(gdb)
	if err != nil {
		return nil, err
	}

	err = gdb.Model(&models.BroadcastInteraction{}).
		Select("broadcast_interactions.user_id, users.display_name, broadcast_interactions.created_at as read_at").
		Joins("LEFT JOIN users ON users.id = broadcast_interactions.user_id").
		Where("broadcast_interactions.broadcast_id = ?", broadcastID).
		Order("broadcast_interactions.created_at").
		Limit(sampleLimit).
		Scan(&stats.Readers).Error
	if err != nil {
		return nil, fmt.Errorf("store: broadcast readers %s: %w", broadcastID, err)
	}

	return &stats, nil
}
