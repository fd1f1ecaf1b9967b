package internal

import (
	"errors"
	"testing"
)

func TestLookupVariant(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantHistory string
		wantErr     bool
	}{
		{name: "gemini", input: "gemini", wantPath: "/api/gemini", wantHistory: "gemini-chat-history"},
		{name: "openai", input: "openai", wantPath: "/api/openai", wantHistory: "openai-chat-history"},
		{name: "case and space insensitive", input: " Gemini ", wantPath: "/api/gemini", wantHistory: "gemini-chat-history"},
		{name: "unknown", input: "claude", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := LookupVariant(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LookupVariant() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownVariant) {
					t.Errorf("error should wrap ErrUnknownVariant, got %v", err)
				}
				return
			}
			if v.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", v.Path, tt.wantPath)
			}
			if v.HistoryKey() != tt.wantHistory {
				t.Errorf("HistoryKey() = %q, want %q", v.HistoryKey(), tt.wantHistory)
			}
		})
	}
}

func TestVariantKeysAreIsolated(t *testing.T) {
	gemini, _ := LookupVariant("gemini")
	openai, _ := LookupVariant("openai")

	if gemini.HistoryKey() == openai.HistoryKey() || gemini.SessionIDKey() == openai.SessionIDKey() {
		t.Error("variants must not share storage keys")
	}
	if gemini.SessionIDKey() != "gemini-session-id" {
		t.Errorf("SessionIDKey() = %q", gemini.SessionIDKey())
	}
}

func TestVariantNames(t *testing.T) {
	names := VariantNames()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openai" {
		t.Errorf("VariantNames() = %v", names)
	}
}

func TestMapMessage(t *testing.T) {
	gemini, _ := LookupVariant("gemini")
	turn := gemini.MapMessage(NewMessage(RoleBot, "answer"))
	if turn.Role != "model" || turn.Text() != "answer" {
		t.Errorf("MapMessage() = %+v", turn)
	}

	openai, _ := LookupVariant("openai")
	turn = openai.MapMessage(NewMessage(RoleUser, "question"))
	if turn.Role != "user" || turn.Content != "question" {
		t.Errorf("MapMessage() = %+v", turn)
	}
}
