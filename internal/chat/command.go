package chat

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind tags the variants of Command.
type CommandKind string

const (
	CmdMenu        CommandKind = "menu"     // back to the main menu
	CmdShowFAQ     CommandKind = "faq"      // render the FAQ list
	CmdAskQuestion CommandKind = "ask"      // start the question flow
	CmdCancelAsk   CommandKind = "ask_stop" // cancel the question flow
	CmdAnon        CommandKind = "ask_anon" // publish anonymously
	CmdNotAnon     CommandKind = "ask_open" // publish attributed

	CmdAdminPanel CommandKind = "admin"    // FAQ admin panel
	CmdAddFAQ     CommandKind = "faq_add"  // start FAQ add flow
	CmdEditFAQ    CommandKind = "faq_edit" // start FAQ edit flow
	CmdDeleteFAQ  CommandKind = "faq_del"  // start FAQ delete flow

	CmdReply       CommandKind = "reply"      // answer a question (QuestionID)
	CmdCancelReply CommandKind = "reply_stop" // abandon the answer prompt (QuestionID)
	CmdResubmit    CommandKind = "resubmit"   // republish a question (QuestionID)

	CmdReadReceipt CommandKind = "read" // read-receipt activation (BroadcastID)
	CmdReceiptSeen CommandKind = "seen" // acknowledged receipt, no-op

	CmdBcastKind     CommandKind = "bc_kind"  // content type choice (Arg)
	CmdBcastTrack    CommandKind = "bc_track" // tracking opt-in, Arg "on"/"off"
	CmdBcastAudience CommandKind = "bc_aud"   // audience choice, Arg "test"/"all"
	CmdBcastConfirm  CommandKind = "bc_go"    // confirm dispatch
	CmdBcastCancel   CommandKind = "bc_stop"  // cancel the compose flow
)

// Command is an affordance payload decoded once at the adapter boundary.
// Exactly the field named by the Kind's documentation is meaningful.
type Command struct {
	Kind        CommandKind
	QuestionID  uint   // CmdReply, CmdCancelReply, CmdResubmit
	BroadcastID string // CmdReadReceipt
	Arg         string // CmdBcastKind, CmdBcastTrack, CmdBcastAudience
}

// Token encodes the command into the opaque string carried by a button.
func (c Command) Token() string {
	switch c.Kind {
	case CmdReply, CmdCancelReply, CmdResubmit:
		return string(c.Kind) + ":" + strconv.FormatUint(uint64(c.QuestionID), 10)
	case CmdReadReceipt:
		return string(c.Kind) + ":" + c.BroadcastID
	case CmdBcastKind, CmdBcastTrack, CmdBcastAudience:
		return string(c.Kind) + ":" + c.Arg
	default:
		return string(c.Kind)
	}
}

// bareKinds are the command kinds that carry no argument.
var bareKinds = map[CommandKind]bool{
	CmdMenu: true, CmdShowFAQ: true, CmdAskQuestion: true, CmdCancelAsk: true,
	CmdAnon: true, CmdNotAnon: true,
	CmdAdminPanel: true, CmdAddFAQ: true, CmdEditFAQ: true, CmdDeleteFAQ: true,
	CmdReceiptSeen: true, CmdBcastConfirm: true, CmdBcastCancel: true,
}

// ParseCommand decodes an affordance token back into a Command. Any token
// that does not round-trip through Token is rejected with a single decode
// error.
func ParseCommand(token string) (Command, error) {
	kind, arg, hasArg := strings.Cut(token, ":")

	switch k := CommandKind(kind); k {
	case CmdReply, CmdCancelReply, CmdResubmit:
		if !hasArg {
			return Command{}, fmt.Errorf("chat: command %q: missing question id", token)
		}
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil || id == 0 {
			return Command{}, fmt.Errorf("chat: command %q: bad question id %q", token, arg)
		}
		return Command{Kind: k, QuestionID: uint(id)}, nil

	case CmdReadReceipt:
		if !hasArg || arg == "" {
			return Command{}, fmt.Errorf("chat: command %q: missing broadcast id", token)
		}
		return Command{Kind: k, BroadcastID: arg}, nil

	case CmdBcastKind, CmdBcastTrack, CmdBcastAudience:
		if !hasArg || arg == "" {
			return Command{}, fmt.Errorf("chat: command %q: missing argument", token)
		}
		return Command{Kind: k, Arg: arg}, nil

	default:
		if !bareKinds[k] {
			return Command{}, fmt.Errorf("chat: unknown command %q", token)
		}
		if hasArg {
			return Command{}, fmt.Errorf("chat: command %q: unexpected argument", token)
		}
		return Command{Kind: k}, nil
	}
}
