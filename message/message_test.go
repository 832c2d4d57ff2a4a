package message

import "testing"

func TestMessageEqual(t *testing.T) {
	a := NewText(RoleUser, "hello")
	b := NewText(RoleUser, "hello")
	if !a.Equal(b) {
		t.Fatalf("expected equal messages")
	}

	c := NewText(RoleUser, "world")
	if a.Equal(c) {
		t.Fatalf("expected different messages to compare unequal")
	}
}

func TestMessagePlainText(t *testing.T) {
	m := Message{
		Role: RoleAssistant,
		Parts: []Part{
			Text("a"),
			ToolCall{Name: "f"},
			Text("b"),
		},
	}
	if got := m.PlainText(); got != "ab" {
		t.Fatalf("got %q", got)
	}
}

func TestCanonicalizeQueryString(t *testing.T) {
	messages, err := CanonicalizeQuery("hi", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 || messages[0].Role != RoleUser {
		t.Fatalf("got %+v", messages)
	}
}

func TestCanonicalizeQueryWithSystemPrompt(t *testing.T) {
	messages, err := CanonicalizeQuery("hi", "be nice")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %+v", messages)
	}
	if messages[0].Role != RoleSystem || messages[0].PlainText() != "be nice" {
		t.Fatalf("got %+v", messages[0])
	}
}

func TestCanonicalizeQueryIdempotent(t *testing.T) {
	canonical := []Message{
		NewText(RoleSystem, "sys"),
		NewText(RoleUser, "hi"),
	}
	messages, err := CanonicalizeQuery(canonical, "sys")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected no duplicated system message, got %+v", messages)
	}
}

func TestCanonicalizeQueryParts(t *testing.T) {
	messages, err := CanonicalizeQuery([]QueryPart{
		{Text: "describe this"},
		{Bytes: []byte{1, 2, 3}, MimeType: "image/png"},
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %+v", messages)
	}
	if len(messages[0].Parts) != 2 {
		t.Fatalf("got %+v", messages[0].Parts)
	}
	if _, ok := messages[0].Parts[1].(ImageBase64); !ok {
		t.Fatalf("expected ImageBase64, got %T", messages[0].Parts[1])
	}
}

func TestCostRecordAdd(t *testing.T) {
	var cost CostRecord
	cost.Add(Usage{PromptTokens: 10, CompletionTokens: 5, CostUSD: 0.01})
	cost.Add(Usage{PromptTokens: 3, CompletionTokens: 2, CostUSD: 0.002})
	snap := cost.Snapshot()
	if snap.PromptTokens != 13 || snap.CompletionTokens != 7 || snap.TotalTokens != 20 {
		t.Fatalf("got %+v", snap)
	}
}
