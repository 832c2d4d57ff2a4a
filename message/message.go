// Package message implements the provider-agnostic conversation model shared
// by every other package: the canonical shape a Brain assembles and a
// Provider consumes, generalized from the teacher's Gemini-shaped
// generators.Content/Part/Role into a vendor-neutral Message/Part/Role.
package message

import (
	"fmt"
	"reflect"
)

// Message is an immutable value: one turn in a conversation, attributed to
// a Role, carrying one or more ordered Parts.
//
// ToolCallID and Name are only meaningful on RoleTool messages, mirroring
// an OpenAI-style tool result message.
type Message struct {
	Role       Role
	Parts      []Part
	ToolCallID string
	Name       string

	// Decayed is set when a context-management pass (agent.decayPass) has
	// written this message's original content to disk and replaced Parts
	// with a short reference. nil on every ordinary message.
	Decayed *DecayedMarker
}

// DecayedMarker is the data model a decayed message carries: for every
// marker m, the file at m.FilePath exists and its size equals
// m.OriginalSize for as long as the backing file is untouched.
type DecayedMarker struct {
	Decayed      bool
	FilePath     string
	OriginalSize int
}

// NewText is a convenience constructor for a single-part text Message.
func NewText(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{Text(text)}}
}

// Equal reports structural equality: same role, same ToolCallID/Name, and
// identical parts in the same order.
func (m Message) Equal(other Message) bool {
	if m.Role != other.Role || m.ToolCallID != other.ToolCallID || m.Name != other.Name {
		return false
	}
	if !reflect.DeepEqual(m.Decayed, other.Decayed) {
		return false
	}
	if len(m.Parts) != len(other.Parts) {
		return false
	}
	for i := range m.Parts {
		if !reflect.DeepEqual(m.Parts[i], other.Parts[i]) {
			return false
		}
	}
	return true
}

// PlainText concatenates every Text part, ignoring other part kinds. Used by
// workers and checkers that only care about the textual content of a
// response.
func (m Message) PlainText() string {
	var s string
	for _, part := range m.Parts {
		if t, ok := part.(Text); ok {
			s += string(t)
		}
	}
	return s
}

// ToolCalls returns every ToolCall part in order.
func (m Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, part := range m.Parts {
		if call, ok := part.(ToolCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s", m.Role, m.PlainText())
}
