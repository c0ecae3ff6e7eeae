package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/openclass/askline/internal/chat"
)

func textEvent(text string) chat.Event {
	return chat.Event{Message: &chat.Message{Text: text}}
}

// newTwoStepMachine builds a machine with steps "first" -> "second" -> done.
// The first step rejects empty text by staying put.
func newTwoStepMachine(store *Store) *Machine {
	m := NewMachine("test", store)
	m.Handle("first", func(ctx context.Context, conv *Conversation, ev chat.Event) (Step, error) {
		if ev.Message == nil || ev.Message.Text == "" {
			return "first", nil
		}
		conv.Attrs["text"] = ev.Message.Text
		return "second", nil
	})
	m.Handle("second", func(ctx context.Context, conv *Conversation, ev chat.Event) (Step, error) {
		conv.Attrs["final"] = ev.Message.Text
		return StepDone, nil
	})
	return m
}

func TestMachine_FullFlow(t *testing.T) {
	store := NewStore()
	m := newTwoStepMachine(store)
	ctx := context.Background()

	m.Start("u1", "first")

	handled, err := m.Resume(ctx, "u1", textEvent("hello"))
	if err != nil || !handled {
		t.Fatalf("Resume = %v, %v", handled, err)
	}
	if c := store.Get("u1"); c.Step != "second" || c.Attrs["text"] != "hello" {
		t.Fatalf("after first step: %+v", c)
	}

	handled, err = m.Resume(ctx, "u1", textEvent("bye"))
	if err != nil || !handled {
		t.Fatalf("Resume = %v, %v", handled, err)
	}
	if store.Get("u1") != nil {
		t.Error("terminal step should clear the conversation")
	}
}

func TestMachine_ValidationStays(t *testing.T) {
	store := NewStore()
	m := newTwoStepMachine(store)

	m.Start("u1", "first")
	handled, err := m.Resume(context.Background(), "u1", textEvent(""))
	if err != nil || !handled {
		t.Fatalf("Resume = %v, %v", handled, err)
	}
	if c := store.Get("u1"); c == nil || c.Step != "first" {
		t.Errorf("invalid input should keep the step: %+v", c)
	}
}

func TestMachine_ResumeIgnoresOtherKinds(t *testing.T) {
	store := NewStore()
	m := newTwoStepMachine(store)
	other := NewMachine("other", store)

	other.Start("u1", "x")
	handled, err := m.Resume(context.Background(), "u1", textEvent("hello"))
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if handled {
		t.Error("machine must not handle another flow's conversation")
	}
	if c := store.Get("u1"); c == nil || c.Kind != "other" {
		t.Errorf("other flow's conversation should be untouched: %+v", c)
	}
}

func TestMachine_ResumeNoConversation(t *testing.T) {
	store := NewStore()
	m := newTwoStepMachine(store)

	handled, err := m.Resume(context.Background(), "u1", textEvent("hello"))
	if handled || err != nil {
		t.Errorf("Resume = %v, %v; want false, nil", handled, err)
	}
}

func TestMachine_HandlerErrorKeepsState(t *testing.T) {
	store := NewStore()
	m := NewMachine("test", store)
	boom := errors.New("boom")
	m.Handle("first", func(ctx context.Context, conv *Conversation, ev chat.Event) (Step, error) {
		return "", boom
	})

	m.Start("u1", "first")
	handled, err := m.Resume(context.Background(), "u1", textEvent("x"))
	if !handled || !errors.Is(err, boom) {
		t.Fatalf("Resume = %v, %v", handled, err)
	}
	if c := store.Get("u1"); c == nil || c.Step != "first" {
		t.Errorf("handler error should keep the conversation: %+v", c)
	}
}

func TestMachine_UnknownStepClears(t *testing.T) {
	store := NewStore()
	m := NewMachine("test", store)

	m.Start("u1", "ghost")
	handled, err := m.Resume(context.Background(), "u1", textEvent("x"))
	if !handled || err == nil {
		t.Fatalf("Resume = %v, %v; want handled with error", handled, err)
	}
	if store.Get("u1") != nil {
		t.Error("unknown step should clear the conversation")
	}
}

func TestMachine_StartReplacesPreviousFlow(t *testing.T) {
	store := NewStore()
	m := newTwoStepMachine(store)
	other := NewMachine("other", store)

	other.Start("u1", "x")
	m.Start("u1", "first")

	if c := store.Get("u1"); c.Kind != "test" || c.Step != "first" {
		t.Errorf("Start should replace previous flow: %+v", c)
	}
}

func TestMachine_Cancel(t *testing.T) {
	store := NewStore()
	m := newTwoStepMachine(store)

	if m.Cancel("u1") {
		t.Error("Cancel with no conversation should return false")
	}
	m.Start("u1", "first")
	if !m.Cancel("u1") {
		t.Error("Cancel should clear own conversation")
	}
	if store.Get("u1") != nil {
		t.Error("conversation should be gone")
	}

	other := NewMachine("other", store)
	other.Start("u1", "x")
	if m.Cancel("u1") {
		t.Error("Cancel must not clear another flow's conversation")
	}
}
