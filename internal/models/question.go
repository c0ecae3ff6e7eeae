package models

import "time"

// Question is a user-submitted question published to the moderation group.
// GroupMessageID is filled in asynchronously once the publish send succeeds,
// so a question can briefly exist without a linked group message. The answer
// triple is write-once: re-answering is rejected at the store layer.
type Question struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	UserID         string `gorm:"size:64;not null;index"`
	Username       string `gorm:"size:64"`
	Text           string `gorm:"type:text;not null"`
	IsAnon         bool
	GroupMessageID string `gorm:"size:64"`
	Answer         string `gorm:"type:text"`
	AnswerUserID   string `gorm:"size:64"`
	AnswerUsername string `gorm:"size:64"`
	CreatedAt      time.Time
}

// Answered reports whether the question has received an answer.
func (q *Question) Answered() bool {
	return q.Answer != ""
}

// FAQEntry is a curated question/answer pair maintained through the admin
// flow. Display numbering is positional (insertion order), not the ID.
type FAQEntry struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Question  string `gorm:"type:text;not null"`
	Answer    string `gorm:"type:text;not null"`
	CreatedAt time.Time
}
