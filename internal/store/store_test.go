package store

import (
	"errors"
	"testing"

	"github.com/openclass/askline/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.FAQEntry{},
		&models.BroadcastInteraction{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func TestTouchUserUpsert(t *testing.T) {
	gdb := openStoreTestDB(t)

	if err := TouchUser(gdb, "10", "alice", "Alice"); err != nil {
		t.Fatalf("TouchUser: %v", err)
	}
	if err := TouchUser(gdb, "10", "alice_renamed", "Alice R"); err != nil {
		t.Fatalf("TouchUser again: %v", err)
	}

	var u models.User
	if err := gdb.First(&u, "id = ?", "10").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.Username != "alice_renamed" {
		t.Errorf("username = %q, want %q", u.Username, "alice_renamed")
	}
	if u.DisplayName != "Alice R" {
		t.Errorf("display name = %q, want %q", u.DisplayName, "Alice R")
	}

	n, err := CountUsers(gdb)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

func TestSetUserActive(t *testing.T) {
	gdb := openStoreTestDB(t)

	if err := TouchUser(gdb, "10", "alice", "Alice"); err != nil {
		t.Fatalf("TouchUser: %v", err)
	}
	if err := SetUserActive(gdb, "10", false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}

	active, err := CountActiveUsers(gdb)
	if err != nil {
		t.Fatalf("CountActiveUsers: %v", err)
	}
	if active != 0 {
		t.Errorf("active count = %d, want 0", active)
	}

	if err := SetUserActive(gdb, "missing", false); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestActiveUsersExcludesInactive(t *testing.T) {
	gdb := openStoreTestDB(t)

	for _, id := range []string{"1", "2", "3"} {
		if err := TouchUser(gdb, id, "u"+id, "User "+id); err != nil {
			t.Fatalf("TouchUser %s: %v", id, err)
		}
	}
	if err := SetUserActive(gdb, "2", false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}

	users, err := ActiveUsers(gdb)
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("active users = %d, want 2", len(users))
	}
	for _, u := range users {
		if u.ID == "2" {
			t.Error("inactive user returned by ActiveUsers")
		}
	}
}

func TestAnswerQuestionFirstWriteWins(t *testing.T) {
	gdb := openStoreTestDB(t)

	q, err := CreateQuestion(gdb, "10", "alice", "why is the sky blue?", true)
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	if err := AnswerQuestion(gdb, q.ID, "rayleigh scattering", "99", "prof"); err != nil {
		t.Fatalf("first answer: %v", err)
	}

	err = AnswerQuestion(gdb, q.ID, "magic", "42", "rival")
	if !errors.Is(err, ErrAlreadyAnswered) {
		t.Fatalf("second answer err = %v, want ErrAlreadyAnswered", err)
	}

	got, err := GetQuestion(gdb, q.ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Answer != "rayleigh scattering" {
		t.Errorf("answer = %q, first write should win", got.Answer)
	}
	if got.AnswerUserID != "99" {
		t.Errorf("answer user = %q, want %q", got.AnswerUserID, "99")
	}
	if !got.Answered() {
		t.Error("Answered() = false after answering")
	}
}

func TestAnswerQuestionNotFound(t *testing.T) {
	gdb := openStoreTestDB(t)

	err := AnswerQuestion(gdb, 404, "text", "1", "admin")
	if !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("err = %v, want ErrQuestionNotFound", err)
	}
	if _, err := GetQuestion(gdb, 404); !errors.Is(err, ErrQuestionNotFound) {
		t.Fatalf("GetQuestion err = %v, want ErrQuestionNotFound", err)
	}
}

func TestLinkGroupMessage(t *testing.T) {
	gdb := openStoreTestDB(t)

	q, err := CreateQuestion(gdb, "10", "alice", "question text", false)
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if err := LinkGroupMessage(gdb, q.ID, "m17"); err != nil {
		t.Fatalf("LinkGroupMessage: %v", err)
	}

	got, err := GetQuestion(gdb, q.ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.GroupMessageID != "m17" {
		t.Errorf("group message id = %q, want %q", got.GroupMessageID, "m17")
	}
}

func TestRecentQuestionsNewestFirst(t *testing.T) {
	gdb := openStoreTestDB(t)

	for _, text := range []string{"first", "second", "third"} {
		if _, err := CreateQuestion(gdb, "10", "alice", text, true); err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
	}

	qs, err := RecentQuestions(gdb, 2)
	if err != nil {
		t.Fatalf("RecentQuestions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	if qs[0].Text != "third" || qs[1].Text != "second" {
		t.Errorf("order wrong: got %q, %q", qs[0].Text, qs[1].Text)
	}
}

func TestCountQuestions(t *testing.T) {
	gdb := openStoreTestDB(t)

	q1, _ := CreateQuestion(gdb, "10", "alice", "one", true)
	if _, err := CreateQuestion(gdb, "11", "bob", "two", true); err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if err := AnswerQuestion(gdb, q1.ID, "answer", "99", "prof"); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}

	total, answered, err := CountQuestions(gdb)
	if err != nil {
		t.Fatalf("CountQuestions: %v", err)
	}
	if total != 2 || answered != 1 {
		t.Errorf("total/answered = %d/%d, want 2/1", total, answered)
	}
}

func TestFAQPositionalResolution(t *testing.T) {
	gdb := openStoreTestDB(t)

	for _, pair := range [][2]string{
		{"q one", "a one"},
		{"q two", "a two"},
		{"q three", "a three"},
	} {
		if _, err := AddFAQ(gdb, pair[0], pair[1]); err != nil {
			t.Fatalf("AddFAQ: %v", err)
		}
	}

	second, err := FAQByPosition(gdb, 2)
	if err != nil {
		t.Fatalf("FAQByPosition: %v", err)
	}
	if second.Question != "q two" {
		t.Errorf("position 2 = %q, want %q", second.Question, "q two")
	}

	// Deleting the first entry shifts positions; position 2 must
	// re-resolve against the live list.
	first, err := FAQByPosition(gdb, 1)
	if err != nil {
		t.Fatalf("FAQByPosition: %v", err)
	}
	if err := DeleteFAQ(gdb, first.ID); err != nil {
		t.Fatalf("DeleteFAQ: %v", err)
	}

	second, err = FAQByPosition(gdb, 2)
	if err != nil {
		t.Fatalf("FAQByPosition after delete: %v", err)
	}
	if second.Question != "q three" {
		t.Errorf("position 2 after delete = %q, want %q", second.Question, "q three")
	}

	if _, err := FAQByPosition(gdb, 3); !errors.Is(err, ErrNoSuchEntry) {
		t.Errorf("stale position err = %v, want ErrNoSuchEntry", err)
	}
	if _, err := FAQByPosition(gdb, 0); !errors.Is(err, ErrNoSuchEntry) {
		t.Errorf("position 0 err = %v, want ErrNoSuchEntry", err)
	}
}

func TestUpdateFAQKeepsEmptyFields(t *testing.T) {
	gdb := openStoreTestDB(t)

	entry, err := AddFAQ(gdb, "original q", "original a")
	if err != nil {
		t.Fatalf("AddFAQ: %v", err)
	}

	if err := UpdateFAQ(gdb, entry.ID, "", "new answer"); err != nil {
		t.Fatalf("UpdateFAQ: %v", err)
	}

	entries, err := ListFAQ(gdb)
	if err != nil {
		t.Fatalf("ListFAQ: %v", err)
	}
	if entries[0].Question != "original q" {
		t.Errorf("question = %q, empty update should keep it", entries[0].Question)
	}
	if entries[0].Answer != "new answer" {
		t.Errorf("answer = %q, want %q", entries[0].Answer, "new answer")
	}

	// Both fields empty is a no-op, not an error.
	if err := UpdateFAQ(gdb, entry.ID, "", ""); err != nil {
		t.Fatalf("empty UpdateFAQ: %v", err)
	}

	if err := UpdateFAQ(gdb, 404, "x", "y"); !errors.Is(err, ErrNoSuchEntry) {
		t.Errorf("update missing err = %v, want ErrNoSuchEntry", err)
	}
}

func TestRecordReadIdempotent(t *testing.T) {
	gdb := openStoreTestDB(t)

	fresh, err := RecordRead(gdb, "bc1", "10")
	if err != nil {
		t.Fatalf("RecordRead: %v", err)
	}
	if !fresh {
		t.Error("first RecordRead should report a new receipt")
	}

	fresh, err = RecordRead(gdb, "bc1", "10")
	if err != nil {
		t.Fatalf("RecordRead repeat: %v", err)
	}
	if fresh {
		t.Error("repeat RecordRead should not report a new receipt")
	}

	var n int64
	gdb.Model(&models.BroadcastInteraction{}).Count(&n)
	if n != 1 {
		t.Errorf("interaction count = %d, want 1", n)
	}
}

func TestStats(t *testing.T) {
	gdb := openStoreTestDB(t)

	for _, id := range []string{"1", "2", "3", "4"} {
		if err := TouchUser(gdb, id, "u"+id, "User "+id); err != nil {
			t.Fatalf("TouchUser: %v", err)
		}
	}
	if err := SetUserActive(gdb, "4", false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	for _, id := range []string{"1", "2"} {
		if _, err := RecordRead(gdb, "bc1", id); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
	}
	if _, err := RecordRead(gdb, "bc2", "3"); err != nil {
		t.Fatalf("RecordRead other broadcast: %v", err)
	}

	stats, err := Stats(gdb, "bc1", 10)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ReadCount != 2 {
		t.Errorf("read count = %d, want 2", stats.ReadCount)
	}
	if stats.TotalEligible != 3 {
		t.Errorf("total eligible = %d, want 3", stats.TotalEligible)
	}
	if len(stats.Readers) != 2 {
		t.Fatalf("readers = %d, want 2", len(stats.Readers))
	}
	if stats.Readers[0].DisplayName != "User 1" {
		t.Errorf("reader display name = %q, want %q", stats.Readers[0].DisplayName, "User 1")
	}

	bounded, err := Stats(gdb, "bc1", 1)
	if err != nil {
		t.Fatalf("Stats bounded: %v", err)
	}
	if len(bounded.Readers) != 1 {
		t.Errorf("bounded readers = %d, want 1", len(bounded.Readers))
	}
}
