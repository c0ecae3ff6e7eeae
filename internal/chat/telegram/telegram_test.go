package telegram

import (
	"errors"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/openclass/askline/internal/chat"
)

func TestOptionsValidate(t *testing.T) {
	opts := Options{}
	if err := opts.Validate(); err == nil {
		t.Error("empty token should fail validation")
	}
	opts.Token = "123:abc"
	if err := opts.Validate(); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}
}

func TestConvertMessage(t *testing.T) {
	m := &models.Message{
		ID:   42,
		Date: 1700000000,
		Chat: models.Chat{ID: -100123, Type: models.ChatTypeSupergroup},
		From: &models.User{ID: 7, Username: "alice", FirstName: "Alice", LastName: "B"},
		Text: "hello",
		Photo: []models.PhotoSize{
			{FileID: "small"},
			{FileID: "large"},
		},
	}

	got := convertMessage(m)
	if got.ChatID != "-100123" {
		t.Errorf("chat id = %q", got.ChatID)
	}
	if got.ChatType != chat.ChatGroup {
		t.Errorf("chat type = %q, want group", got.ChatType)
	}
	if got.MessageID != "42" {
		t.Errorf("message id = %q", got.MessageID)
	}
	if got.From.ID != "7" || got.From.Username != "alice" || got.From.DisplayName != "Alice B" {
		t.Errorf("from = %+v", got.From)
	}
	if got.Photo != "large" {
		t.Errorf("photo = %q, want the largest size", got.Photo)
	}
	if got.Timestamp.Unix() != 1700000000 {
		t.Errorf("timestamp = %v", got.Timestamp)
	}
}

func TestConvertChatType(t *testing.T) {
	if got := convertChatType(models.ChatTypePrivate); got != chat.ChatPrivate {
		t.Errorf("private = %q", got)
	}
	for _, typ := range []models.ChatType{models.ChatTypeGroup, models.ChatTypeSupergroup} {
		if got := convertChatType(typ); got != chat.ChatGroup {
			t.Errorf("%q = %q, want group", typ, got)
		}
	}
}

func TestConvertKeyboard(t *testing.T) {
	if convertKeyboard(nil) != nil {
		t.Error("nil keyboard should convert to nil markup")
	}

	kb := &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Answer", Command: chat.Command{Kind: chat.CmdReply, QuestionID: 7}}},
	}}
	markup := convertKeyboard(kb)
	inline, ok := markup.(*models.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("markup type %T", markup)
	}
	btn := inline.InlineKeyboard[0][0]
	if btn.Text != "Answer" || btn.CallbackData != "reply:7" {
		t.Errorf("button = %+v", btn)
	}
}

func TestNumericChatID(t *testing.T) {
	if got := numericChatID("-100123"); got != int64(-100123) {
		t.Errorf("numeric id = %v (%T)", got, got)
	}
	if got := numericChatID("@channel"); got != "@channel" {
		t.Errorf("username id = %v", got)
	}
}

func TestEditResult(t *testing.T) {
	if res, err := editResult("1", nil); err != nil || res != chat.EditApplied {
		t.Errorf("nil err = %v, %v", res, err)
	}
	notModified := errors.New("Bad Request: message is not modified")
	if res, err := editResult("1", notModified); err != nil || res != chat.EditUnchanged {
		t.Errorf("not-modified = %v, %v", res, err)
	}
	if _, err := editResult("1", errors.New("chat not found")); err == nil {
		t.Error("real edit errors must propagate")
	}
}
