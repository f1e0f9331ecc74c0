package chat

import (
	"testing"
	"time"
)

func TestHistory_AppendAndOrder(t *testing.T) {
	h := NewHistory()

	userID := h.Append(RoleUser, "hello", false)
	modelID := h.Append(RoleModel, "", true)

	if userID == modelID {
		t.Fatal("message ids must be unique")
	}

	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Text != "hello" {
		t.Errorf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleModel || !msgs[1].Streaming {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
}

func TestHistory_InPlaceEditKeepsIdentity(t *testing.T) {
	h := NewHistory()
	id := h.Append(RoleModel, "", true)

	if !h.SetText(id, "partial") {
		t.Fatal("SetText reported missing message")
	}
	if !h.SetText(id, "partial plus more") {
		t.Fatal("SetText reported missing message")
	}

	msgs := h.Messages()
	if len(msgs) != 1 {
		t.Fatalf("in-place edits must not append; got %d messages", len(msgs))
	}
	if msgs[0].ID != id {
		t.Error("message identity changed across edits")
	}
	if msgs[0].Text != "partial plus more" {
		t.Errorf("got %q", msgs[0].Text)
	}
}

func TestHistory_Freeze(t *testing.T) {
	h := NewHistory()
	id := h.Append(RoleModel, "done", true)

	if !h.Freeze(id) {
		t.Fatal("Freeze reported missing message")
	}
	if h.Messages()[0].Streaming {
		t.Error("message still streaming after freeze")
	}
}

func TestHistory_UpdateUnknownID(t *testing.T) {
	h := NewHistory()
	if h.SetText("no-such-id", "x") {
		t.Error("expected false for unknown id")
	}
}

func TestHistory_MessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(RoleUser, "original", false)

	msgs := h.Messages()
	msgs[0].Text = "mutated"

	if h.Messages()[0].Text != "original" {
		t.Error("caller mutation leaked into the history")
	}
}

func TestHistory_SubscribeReceivesSnapshots(t *testing.T) {
	h := NewHistory()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Append(RoleUser, "hi", false)

	select {
	case snap := <-ch:
		if len(snap) != 1 || snap[0].Text != "hi" {
			t.Errorf("unexpected snapshot: %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestHistory_SlowSubscriberSeesLatest(t *testing.T) {
	h := NewHistory()
	ch, cancel := h.Subscribe()
	defer cancel()

	// Nobody reads between mutations; the pending snapshot must be the
	// most recent one.
	h.Append(RoleUser, "first", false)
	h.Append(RoleUser, "second", false)

	select {
	case snap := <-ch:
		if len(snap) != 2 {
			t.Errorf("expected latest snapshot with 2 messages, got %d", len(snap))
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestHistory_CancelStopsDelivery(t *testing.T) {
	h := NewHistory()
	ch, cancel := h.Subscribe()
	cancel()

	h.Append(RoleUser, "hi", false)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("snapshot delivered after cancel")
		}
	case <-time.After(50 * time.Millisecond):
		// Nothing delivered: fine.
	}
}
