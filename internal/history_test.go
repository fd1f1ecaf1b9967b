package internal

import (
	"testing"
	"time"
)

func newTestHistory(now time.Time) *History {
	h := NewHistory()
	h.now = func() time.Time { return now }
	return h
}

func TestHistoryAppend(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h := newTestHistory(now)

	first := NewMessage(RoleUser, "hello")
	h.Append(first)
	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
	if first.ID == "" {
		t.Error("Append() should assign an ID")
	}
	if !first.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", first.Timestamp, now)
	}

	// Identical content is kept twice
	h.Append(NewMessage(RoleUser, "hello"))
	h.Append(NewMessage(RoleBot, "hi"))
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", h.Len())
	}

	messages := h.Messages()
	wantTexts := []string{"hello", "hello", "hi"}
	for i, want := range wantTexts {
		if messages[i].Text != want {
			t.Errorf("messages[%d].Text = %q, want %q", i, messages[i].Text, want)
		}
	}
	if messages[0].ID == messages[1].ID {
		t.Error("identical messages should get distinct IDs")
	}
}

func TestHistoryAppend_KeepsExistingIDAndTimestamp(t *testing.T) {
	h := NewHistory()
	ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &Message{ID: "fixed", Role: RoleUser, Text: "x", Timestamp: ts}
	h.Append(m)

	got, ok := h.Find("fixed")
	if !ok {
		t.Fatal("Find() did not return the appended message")
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestHistoryMessages_ReturnsCopies(t *testing.T) {
	h := NewHistory()
	h.Append(NewMessage(RoleUser, "original"))

	messages := h.Messages()
	messages[0].Text = "mutated"

	if h.Messages()[0].Text != "original" {
		t.Error("Messages() should not expose the internal log")
	}
}

func TestHistoryToAPIHistory(t *testing.T) {
	gemini, _ := LookupVariant("gemini")
	openai, _ := LookupVariant("openai")

	build := func() *History {
		h := NewHistory()
		h.Append(NewMessage(RoleUser, "hi"))
		h.Append(NewMessage(RoleBot, "hello!"))
		h.Append(NewMessage(RoleUser, "tell me a joke"))
		h.Append(NewMessage(RoleBot, "Service unavailable", WithError("tell me a joke", true)))
		h.Append(NewMessage(RoleUser, "tell me a joke"))
		return h
	}

	t.Run("gemini drops errors and the pending message", func(t *testing.T) {
		turns := build().ToAPIHistory(gemini)
		if len(turns) != 3 {
			t.Fatalf("len = %d, want 3: %+v", len(turns), turns)
		}
		wantRoles := []string{"user", "model", "user"}
		for i, turn := range turns {
			if turn.Role != wantRoles[i] {
				t.Errorf("turns[%d].Role = %q, want %q", i, turn.Role, wantRoles[i])
			}
			if len(turn.Parts) != 1 || turn.Content != "" {
				t.Errorf("turns[%d] should use the parts shape: %+v", i, turn)
			}
		}
		if turns[1].Text() != "hello!" {
			t.Errorf("turns[1].Text() = %q", turns[1].Text())
		}
	})

	t.Run("openai uses content and assistant role", func(t *testing.T) {
		turns := build().ToAPIHistory(openai)
		if len(turns) != 3 {
			t.Fatalf("len = %d, want 3", len(turns))
		}
		if turns[1].Role != "assistant" || turns[1].Content != "hello!" || turns[1].Parts != nil {
			t.Errorf("turns[1] = %+v", turns[1])
		}
	})

	t.Run("empty history", func(t *testing.T) {
		turns := NewHistory().ToAPIHistory(gemini)
		if turns == nil || len(turns) != 0 {
			t.Errorf("ToAPIHistory() = %#v, want empty non-nil slice", turns)
		}
	})

	t.Run("only errors", func(t *testing.T) {
		h := NewHistory()
		h.Append(NewMessage(RoleBot, "failed", WithError("x", true)))
		if turns := h.ToAPIHistory(gemini); len(turns) != 0 {
			t.Errorf("ToAPIHistory() = %+v, want empty", turns)
		}
	})
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory()
	h.Append(NewMessage(RoleUser, "a"))
	h.Reset()
	if h.Len() != 0 || len(h.Messages()) != 0 {
		t.Error("Reset() should empty the log")
	}
}
