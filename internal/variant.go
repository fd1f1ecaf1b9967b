package internal

import (
	"fmt"
	"sort"
	"strings"
)

// HistoryShape selects how prior turns are laid out in the outbound request
type HistoryShape int

const (
	// ShapeParts renders {role, parts: [{text}]}
	ShapeParts HistoryShape = iota
	// ShapeContent renders {role, content}
	ShapeContent
)

// Variant describes one backend flavor. Each variant keeps its own key
// namespace in the durable store so several can share one storage file.
type Variant struct {
	Name      string
	KeyPrefix string
	Path      string
	UserRole  string
	BotRole   string
	Shape     HistoryShape
	// StatefulSession means the backend keeps prior turns once it has issued a
	// session id, so no history is sent while one is bound.
	StatefulSession bool
}

var variants = map[string]Variant{
	"gemini": {
		Name:      "gemini",
		KeyPrefix: "gemini",
		Path:      "/api/gemini",
		UserRole:  "user",
		BotRole:   "model",
		Shape:     ShapeParts,
	},
	"openai": {
		Name:      "openai",
		KeyPrefix: "openai",
		Path:      "/api/openai",
		UserRole:  "user",
		BotRole:   "assistant",
		Shape:     ShapeContent,
	},
}

// LookupVariant returns the variant registered under name
func LookupVariant(name string) (Variant, error) {
	v, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownVariant, name, strings.Join(VariantNames(), ", "))
	}
	return v, nil
}

// VariantNames lists the registered variant names in sorted order
func VariantNames() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HistoryKey is the storage key of the message log
func (v Variant) HistoryKey() string {
	return v.KeyPrefix + "-chat-history"
}

// SessionIDKey is the storage key of the bound remote session id
func (v Variant) SessionIDKey() string {
	return v.KeyPrefix + "-session-id"
}

// APITurn is one prior turn in the shape the backend expects
type APITurn struct {
	Role    string    `json:"role"`
	Content string    `json:"content,omitempty"`
	Parts   []APIPart `json:"parts,omitempty"`
}

// APIPart is a text part of a Gemini-style turn
type APIPart struct {
	Text string `json:"text"`
}

// Text returns the turn's text regardless of shape
func (t APITurn) Text() string {
	if len(t.Parts) > 0 {
		var b strings.Builder
		for _, p := range t.Parts {
			b.WriteString(p.Text)
		}
		return b.String()
	}
	return t.Content
}

// MapMessage converts a message into the variant's turn vocabulary
func (v Variant) MapMessage(m *Message) APITurn {
	role := v.BotRole
	if m.Role == RoleUser {
		role = v.UserRole
	}
	if v.Shape == ShapeParts {
		return APITurn{Role: role, Parts: []APIPart{{Text: m.Text}}}
	}
	return APITurn{Role: role, Content: m.Text}
}
