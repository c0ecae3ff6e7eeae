package bot

import (
	"fmt"
	"strings"

	"github.com/openclass/askline/internal/chat"
	"github.com/openclass/askline/internal/models"
	"github.com/openclass/askline/internal/store"
)

const (
	textMenu            = "What would you like to do?"
	textAskPrompt       = "Send your question as a single message."
	textAskAnonChoice   = "Publish it anonymously or with your name?"
	textAskCancelled    = "Question cancelled."
	textAskPublished    = "Your question has been sent. You'll get a notification when it is answered."
	textAskPublishFail  = "Couldn't publish your question right now, please try again later."
	textReplyCancelled  = "Answer cancelled."
	textAnswerRecorded  = "Answer sent."
	textFAQEmpty        = "No FAQ entries yet."
	textNotAdmin        = "This action is for administrators."
	textFAQAddQuestion  = "Send the question text for the new FAQ entry."
	textFAQAddAnswer    = "Now send the answer text."
	textFAQPickEdit     = "Send the number of the entry to edit."
	textFAQPickDelete   = "Send the number of the entry to delete."
	textFAQEditQuestion = "Send the new question text, or \"-\" to keep the current one."
	textFAQEditAnswer   = "Send the new answer text, or \"-\" to keep the current one."
	textFAQBadNumber    = "That's not a valid entry number, try again."
	textBcastKind       = "What kind of content is this broadcast?"
	textBcastContent    = "Send the broadcast content now."
	textBcastTrack      = "Attach a read-receipt button?"
	textBcastCancelled  = "Broadcast cancelled."
	textReceiptThanks   = "Thanks, noted!"
	textReceiptRepeat   = "Already noted."
	textReceiptPrompt   = "Tap below to confirm you've seen this."
)

func mainMenuKeyboard(isAdmin bool) *chat.Keyboard {
	kb := &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "FAQ", Command: chat.Command{Kind: chat.CmdShowFAQ}}},
		{{Label: "Ask a question", Command: chat.Command{Kind: chat.CmdAskQuestion}}},
	}}
	if isAdmin {
		kb.Rows = append(kb.Rows, []chat.Button{
			{Label: "Admin panel", Command: chat.Command{Kind: chat.CmdAdminPanel}},
		})
	}
	return kb
}

func followUpKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Ask another question", Command: chat.Command{Kind: chat.CmdAskQuestion}}},
		{{Label: "FAQ", Command: chat.Command{Kind: chat.CmdShowFAQ}}},
		{{Label: "Main menu", Command: chat.Command{Kind: chat.CmdMenu}}},
	}}
}

func cancelAskKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdCancelAsk}}},
	}}
}

func anonChoiceKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Anonymously", Command: chat.Command{Kind: chat.CmdAnon}}},
		{{Label: "With my name", Command: chat.Command{Kind: chat.CmdNotAnon}}},
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdCancelAsk}}},
	}}
}

func adminPanelKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Add FAQ entry", Command: chat.Command{Kind: chat.CmdAddFAQ}}},
		{{Label: "Edit FAQ entry", Command: chat.Command{Kind: chat.CmdEditFAQ}}},
		{{Label: "Delete FAQ entry", Command: chat.Command{Kind: chat.CmdDeleteFAQ}}},
		{{Label: "Main menu", Command: chat.Command{Kind: chat.CmdMenu}}},
	}}
}

// renderFAQ numbers entries by their position in the live list, which is
// what the edit and delete flows resolve against.
func renderFAQ(entries []models.FAQEntry) string {
	if len(entries) == 0 {
		return textFAQEmpty
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, e.Question, e.Answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func questionGroupText(q *models.Question) string {
	who := "Anonymous"
	if !q.IsAnon {
		who = q.Username
		if who == "" {
			who = q.UserID
		}
	}
	return fmt.Sprintf("Question #%d from %s:\n\n%s", q.ID, who, q.Text)
}

func answeredGroupText(q *models.Question) string {
	by := q.AnswerUsername
	if by == "" {
		by = q.AnswerUserID
	}
	return fmt.Sprintf("%s\n\nAnswer from %s:\n%s", questionGroupText(q), by, q.Answer)
}

func questionGroupKeyboard(id uint) *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Answer", Command: chat.Command{Kind: chat.CmdReply, QuestionID: id}}},
		{{Label: "Publish again", Command: chat.Command{Kind: chat.CmdResubmit, QuestionID: id}}},
	}}
}

func replyPromptKeyboard(id uint) *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdCancelReply, QuestionID: id}}},
	}}
}

func answerNotifyText(q *models.Question) string {
	return fmt.Sprintf("Your question was answered:\n\n%s\n\nAnswer:\n%s", q.Text, q.Answer)
}

func bcastKindKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Text", Command: chat.Command{Kind: chat.CmdBcastKind, Arg: "text"}}},
		{{Label: "Photo", Command: chat.Command{Kind: chat.CmdBcastKind, Arg: "photo"}}},
		{{Label: "Photo with caption", Command: chat.Command{Kind: chat.CmdBcastKind, Arg: "photo_caption"}}},
		{{Label: "Video", Command: chat.Command{Kind: chat.CmdBcastKind, Arg: "video"}}},
		{{Label: "Audio or voice", Command: chat.Command{Kind: chat.CmdBcastKind, Arg: "audio"}}},
		{{Label: "Video note", Command: chat.Command{Kind: chat.CmdBcastKind, Arg: "video_note"}}},
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdBcastCancel}}},
	}}
}

func bcastTrackKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "With read receipts", Command: chat.Command{Kind: chat.CmdBcastTrack, Arg: "on"}}},
		{{Label: "Without", Command: chat.Command{Kind: chat.CmdBcastTrack, Arg: "off"}}},
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdBcastCancel}}},
	}}
}

func bcastAudienceKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Test (just me)", Command: chat.Command{Kind: chat.CmdBcastAudience, Arg: "test"}}},
		{{Label: "All active users", Command: chat.Command{Kind: chat.CmdBcastAudience, Arg: "all"}}},
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdBcastCancel}}},
	}}
}

func bcastConfirmKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Send it", Command: chat.Command{Kind: chat.CmdBcastConfirm}}},
		{{Label: "Cancel", Command: chat.Command{Kind: chat.CmdBcastCancel}}},
	}}
}

func bcastSummaryText(kind, audience string, recipients int64, tracked bool) string {
	track := "no read receipts"
	if tracked {
		track = "with read receipts"
	}
	return fmt.Sprintf("Ready to send a %s broadcast to %q (%d recipients), %s. Confirm?",
		kind, audience, recipients, track)
}

func readReceiptKeyboard(broadcastID string) *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Got it", Command: chat.Command{Kind: chat.CmdReadReceipt, BroadcastID: broadcastID}}},
	}}
}

func seenKeyboard() *chat.Keyboard {
	return &chat.Keyboard{Rows: [][]chat.Button{
		{{Label: "Seen ✓", Command: chat.Command{Kind: chat.CmdReceiptSeen}}},
	}}
}

func statsText(users, active, total, answered, faq int64) string {
	return fmt.Sprintf("Users: %d (%d active)\nQuestions: %d (%d answered)\nFAQ entries: %d",
		users, active, total, answered, faq)
}

func broadcastStatsText(s *store.BroadcastStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Broadcast %s: %d of %d active users confirmed.\n",
		s.BroadcastID, s.ReadCount, s.TotalEligible)
	for _, r := range s.Readers {
		name := r.DisplayName
		if name == "" {
			name = r.UserID
		}
		fmt.Fprintf(&b, "- %s at %s\n", name, r.ReadAt.Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}
