package store

import (
	"errors"
	"fmt"

	"github.com/openclass/askline/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyAnswered is returned when a second answer is attempted on a
// question. The first write wins; the loser is told so.
var ErrAlreadyAnswered = errors.New("store: question already answered")

// ErrQuestionNotFound is returned when a question id no longer resolves.
var ErrQuestionNotFound = errors.New("store: question not found")

// CreateQuestion persists a new question. The group message link is filled
// in separately once the publish send succeeds.
func CreateQuestion(gdb *gorm.DB, userID, username, text string, isAnon bool) (*models.Question, error) {
	if text == "" {
		return nil, fmt.Errorf("store: question text is required")
	}

	q := models.Question{
		UserID:   userID,
		Username: username,
		Text:     text,
		IsAnon:   isAnon,
	}
	if err := gdb.Create(&q).Error; err != nil {
		return nil, fmt.Errorf("store: create question: %w", err)
	}
	return &q, nil
}

// GetQuestion fetches a question by id.
func GetQuestion(gdb *gorm.DB, id uint) (*models.Question, error) {
	var q models.Question
	if err := gdb.First(&q, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("store: get question %d: %w", id, err)
	}
	return &q, nil
}

// LinkGroupMessage records the group message a question was published under.
func LinkGroupMessage(gdb *gorm.DB, id uint, messageID string) error {
	result := gdb.Model(&models.Question{}).Where("id = ?", id).
		Update("group_message_id", messageID)
	if result.Error != nil {
		return fmt.Errorf("store: link group message for question %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// AnswerQuestion writes the answer triple. First write wins: answering an
// already-answered question returns ErrAlreadyAnswered. The conditional
// UPDATE makes concurrent answer attempts resolve to exactly one winner.
func AnswerQuestion(gdb *gorm.DB, id uint, answer, byUserID, byUsername string) error {
	if answer == "" {
		return fmt.Errorf("store: answer text is required")
	}

	result := gdb.Model(&models.Question{}).
		Where("id = ? AND answer = ?", id, "").
		Updates(map[string]interface{}{
			"answer":          answer,
			"answer_user_id":  byUserID,
			"answer_username": byUsername,
		})
	if result.Error != nil {
		return fmt.Errorf("store: answer question %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := gdb.Model(&models.Question{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return fmt.Errorf("store: answer question %d: %w", id, err)
		}
		if n == 0 {
			return ErrQuestionNotFound
		}
		return ErrAlreadyAnswered
	}
	return nil
}

// RecentQuestions returns the newest questions, most recent first.
func RecentQuestions(gdb *gorm.DB, limit int) ([]models.Question, error) {
	if limit <= 0 {
		limit = 20
	}
	var qs []models.Question
	if err := gdb.Order("id DESC").Limit(limit).Find(&qs).Error; err != nil {
		return nil, fmt.Errorf("store: recent questions: %w", err)
	}
	return qs, nil
}

// CountQuestions returns total and answered question counts.
func CountQuestions(gdb *gorm.DB) (total, answered int64, err error) {
	if err = gdb.Model(&models.Question{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("store: count questions: %w", err)
	}
	if err = gdb.Model(&models.Question{}).Where("answer <> ?", "").Count(&answered).Error; err != nil {
		return 0, 0, fmt.Errorf("store: count answered questions: %w", err)
	}
	return total, answered, nil
}
