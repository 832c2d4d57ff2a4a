package provider

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reusee/minion/message"
)

func TestHTTPProviderGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"hello \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"world\"},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewHTTPProvider(server.Client(), logger, server.URL, "key", "test-model")

	resp, err := p.Generate(t.Context(), Request{
		Messages: []message.Message{message.NewText(message.RoleUser, "hi")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message.PlainText() != "hello world" {
		t.Fatalf("got %q", resp.Message.PlainText())
	}
	if resp.StopReason != "stop" {
		t.Fatalf("got stop reason %q", resp.StopReason)
	}

	cost := p.GetCost().Snapshot()
	if cost.PromptTokens != 3 || cost.CompletionTokens != 2 {
		t.Fatalf("got cost %+v", cost)
	}
}

func TestHTTPProviderGenerateToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"role":"assistant","tool_calls":[{"id":"call_1","type":"function","function":{"name":"now"}}]}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"tool_calls":[{"function":{"arguments":"{\"tz\":\"UTC\"}"}}]},"finish_reason":"tool_calls"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewHTTPProvider(server.Client(), logger, server.URL, "key", "test-model")

	resp, err := p.Generate(t.Context(), Request{
		Messages: []message.Message{message.NewText(message.RoleUser, "time?")},
	})
	if err != nil {
		t.Fatal(err)
	}
	calls := resp.Message.ToolCalls()
	if len(calls) != 1 {
		t.Fatalf("got %+v", resp.Message.Parts)
	}
	if calls[0].Name != "now" || calls[0].Args["tz"] != "UTC" {
		t.Fatalf("got %+v", calls[0])
	}
}

func TestHTTPProviderErrorClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer server.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewHTTPProvider(server.Client(), logger, server.URL, "key", "test-model")

	_, err := p.Generate(t.Context(), Request{
		Messages: []message.Message{message.NewText(message.RoleUser, "hi")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
