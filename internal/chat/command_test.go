package chat

import "testing"

func TestCommand_TokenRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"menu", Command{Kind: CmdMenu}, "menu"},
		{"ask", Command{Kind: CmdAskQuestion}, "ask"},
		{"anon", Command{Kind: CmdAnon}, "ask_anon"},
		{"reply", Command{Kind: CmdReply, QuestionID: 7}, "reply:7"},
		{"cancel reply", Command{Kind: CmdCancelReply, QuestionID: 12}, "reply_stop:12"},
		{"resubmit", Command{Kind: CmdResubmit, QuestionID: 3}, "resubmit:3"},
		{"read receipt", Command{Kind: CmdReadReceipt, BroadcastID: "ab12cd"}, "read:ab12cd"},
		{"bcast kind", Command{Kind: CmdBcastKind, Arg: "photo_caption"}, "bc_kind:photo_caption"},
		{"bcast track", Command{Kind: CmdBcastTrack, Arg: "on"}, "bc_track:on"},
		{"bcast audience", Command{Kind: CmdBcastAudience, Arg: "all"}, "bc_aud:all"},
		{"bcast confirm", Command{Kind: CmdBcastConfirm}, "bc_go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.cmd.Token()
			if token != tt.want {
				t.Fatalf("Token() = %q, want %q", token, tt.want)
			}
			parsed, err := ParseCommand(token)
			if err != nil {
				t.Fatalf("ParseCommand(%q): %v", token, err)
			}
			if parsed != tt.cmd {
				t.Errorf("round trip = %+v, want %+v", parsed, tt.cmd)
			}
		})
	}
}

func TestParseCommand_Malformed(t *testing.T) {
	tokens := []string{
		"",
		"bogus",
		"reply",        // missing id
		"reply:",       // empty id
		"reply:x",      // non-numeric id
		"reply:0",      // zero id
		"read",         // missing broadcast id
		"read:",        // empty broadcast id
		"bc_kind",      // missing arg
		"menu:extra",   // bare kind with argument
		"ask_anon:yes", // bare kind with argument
	}

	for _, token := range tokens {
		if _, err := ParseCommand(token); err == nil {
			t.Errorf("ParseCommand(%q): expected error", token)
		}
	}
}

func TestKind_SupportsKeyboard(t *testing.T) {
	for _, k := range []Kind{KindText, KindPhoto, KindVideo, KindAudio, KindVoice} {
		if !k.SupportsKeyboard() {
			t.Errorf("%s should support keyboards", k)
		}
	}
	if KindVideoNote.SupportsKeyboard() {
		t.Error("video notes cannot carry inline keyboards")
	}
}
