package store

import (
	"errors"
	"fmt"

	"github.com/openclass/askline/internal/models"
	"gorm.io/gorm"
)

// ErrNoSuchEntry is returned when a 1-based FAQ position does not resolve
// against the current list.
var ErrNoSuchEntry = errors.New("store: no FAQ entry at that position")

// ListFAQ returns all FAQ entries in insertion order, which is also the
// display numbering order.
func ListFAQ(gdb *gorm.DB) ([]models.FAQEntry, error) {
	var entries []models.FAQEntry
	if err := gdb.Order("id").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("store: list faq: %w", err)
	}
	return entries, nil
}

// FAQByPosition resolves a 1-based display position against the live list.
// Positions shift under concurrent edits, so this is called at selection
// time, never from a cached listing.
func FAQByPosition(gdb *gorm.DB, pos int) (*models.FAQEntry, error) {
	if pos < 1 {
		return nil, ErrNoSuchEntry
	}
	entries, err := ListFAQ(gdb)
	if err != nil {
		return nil, err
	}
	if pos > len(entries) {
		return nil, ErrNoSuchEntry
	}
	return &entries[pos-1], nil
}

// AddFAQ creates a new FAQ entry.
func AddFAQ(gdb *gorm.DB, question, answer string) (*models.FAQEntry, error) {
	if question == "" {
		return nil, fmt.Errorf("store: faq question is required")
	}
	if answer == "" {
		return nil, fmt.Errorf("store: faq answer is required")
	}

	entry := models.FAQEntry{Question: question, Answer: answer}
	if err := gdb.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("store: add faq: %w", err)
	}
	return &entry, nil
}

// UpdateFAQ updates an entry's fields. An empty string keeps the existing
// value for that field.
func UpdateFAQ(gdb *gorm.DB, id uint, question, answer string) error {
	updates := map[string]interface{}{}
	if question != "" {
		updates["question"] = question
	}
	if answer != "" {
		updates["answer"] = answer
	}
	if len(updates) == 0 {
		return nil
	}

	result := gdb.Model(&models.FAQEntry{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("store: update faq %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoSuchEntry
	}
	return nil
}

// DeleteFAQ removes an entry by id.
func DeleteFAQ(gdb *gorm.DB, id uint) error {
	result := gdb.Delete(&models.FAQEntry{}, id)
	if result.Error != nil {
		return fmt.Errorf("store: delete faq %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoSuchEntry
	}
	return nil
}

// CountFAQ returns the number of FAQ entries.
func CountFAQ(gdb *gorm.DB) (int64, error) {
	var n int64
	if err := gdb.Model(&models.FAQEntry{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count faq: %w", err)
	}
	return n, nil
}
