package hub

import (
	"testing"
	"time"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	h := New("test", nil)
	go h.Run()

	client := NewClient(h, nil)

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	if err := h.BroadcastJSON(map[string]string{"type": "history"}); err != nil {
		t.Fatalf("BroadcastJSON failed: %v", err)
	}

	select {
	case msg := <-client.send:
		if string(msg.Data) != `{"type":"history"}` {
			t.Errorf("unexpected payload: %s", msg.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	h := New("test", nil)
	go h.Run()

	client := NewClient(h, nil)

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	// Fill the client's buffer past capacity without draining it.
	for i := 0; i < cap(client.send)+16; i++ {
		h.Broadcast(NewJSONMessage([]byte(`{}`)))
		time.Sleep(time.Microsecond)
	}

	deadline = time.Now().Add(2 * time.Second)
	for h.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow client never dropped")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_BroadcastJSONError(t *testing.T) {
	h := New("test", nil)
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}
