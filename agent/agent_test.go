package agent

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
	"github.com/reusee/minion/tool"
)

type fakeProvider struct{}

func (fakeProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	return provider.Response{Message: message.NewText(message.RoleAssistant, "ok"), StopReason: "stop"}, nil
}
func (fakeProvider) GenerateStream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	return nil, nil
}
func (fakeProvider) CountTokens(text string) (int, error) { return 0, nil }
func (fakeProvider) GetCost() *message.CostRecord         { return &message.CostRecord{} }

type echoWorker struct{}

func (echoWorker) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	return &brain.AgentResponse{Answer: in.Query(), Messages: in.Messages, Terminated: true}, nil
}

func newTestAgent() *Agent {
	models := brain.NewModelRegistry()
	models.RegisterAPIType("fake", func(spec brain.ProviderSpec) (provider.Provider, error) { return fakeProvider{}, nil })
	models.RegisterAlias(brain.ProviderSpec{Name: "default", APIType: "fake"})

	workers := brain.NewIsolatedRegistry()
	workers.Register("moderator", func() brain.Worker { return echoWorker{} })

	b := brain.New(models, tool.NewRegistry(), workers)
	b.DefaultProvider = "default"

	return &Agent{Brain: b}
}

func TestAgentSetupIsIdempotent(t *testing.T) {
	a := newTestAgent()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	interp := a.Interp
	if err := a.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.Interp != interp {
		t.Fatal("expected Setup to be idempotent")
	}
}

func TestAgentStepAppendsHistoryAndDelegatesToBrain(t *testing.T) {
	a := newTestAgent()
	resp, err := a.Step(context.Background(), "hello", "", false)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "hello" {
		t.Fatalf("got %+v", resp)
	}
	if len(a.State.Messages) == 0 {
		t.Fatal("expected state to accumulate messages")
	}
}

func TestAgentRunAsyncStopsOnTermination(t *testing.T) {
	a := newTestAgent()
	resp, err := a.RunAsync(context.Background(), "hi", 5, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Terminated {
		t.Fatal("expected termination on first step")
	}
}

func TestDecayPassWritesLargeOldMessages(t *testing.T) {
	dir := t.TempDir()
	a := newTestAgent()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Decay = DecayConfig{Enabled: true, MaxAgeSteps: 0, MaxBytes: 5, Dir: dir}
	a.State.Messages = []message.Message{
		message.NewText(message.RoleUser, "this is a long message well past the byte threshold"),
	}
	a.State.Steps = 1

	if err := a.decayPass(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one decayed file, got %d", len(entries))
	}
}

func TestCompactPassSkipsBelowBudget(t *testing.T) {
	a := newTestAgent()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Compact = CompactConfig{Enabled: true, TokenBudget: 1_000_000, PinLastTurns: 2}
	a.State.Messages = []message.Message{message.NewText(message.RoleUser, "hi")}

	before := len(a.State.Messages)
	if err := a.compactPass(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(a.State.Messages) != before {
		t.Fatal("expected no compaction below budget")
	}
}

func TestDecayPassSetsMarkerAndExactText(t *testing.T) {
	dir := t.TempDir()
	a := newTestAgent()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Decay = DecayConfig{Enabled: true, MaxAgeSteps: 0, MaxBytes: 5, Dir: dir}
	text := "this is a long message well past the byte threshold"
	a.State.Messages = []message.Message{message.NewText(message.RoleUser, text)}
	a.State.Steps = 1

	if err := a.decayPass(context.Background()); err != nil {
		t.Fatal(err)
	}

	m := a.State.Messages[0]
	if m.Decayed == nil || !m.Decayed.Decayed {
		t.Fatal("expected a decayed message marker")
	}
	if m.Decayed.OriginalSize != len(text) {
		t.Fatalf("got original size %d, want %d", m.Decayed.OriginalSize, len(text))
	}
	data, err := os.ReadFile(m.Decayed.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != m.Decayed.OriginalSize {
		t.Fatalf("file size %d does not match marker's original size %d", len(data), m.Decayed.OriginalSize)
	}
	if !strings.HasPrefix(m.PlainText(), "[Large output (") || !strings.Contains(m.PlainText(), "Use file_read to access full content if needed.") {
		t.Fatalf("got replacement text %q", m.PlainText())
	}
}

func TestCompactPassPinsAllSystemMessagesAcrossPasses(t *testing.T) {
	a := newTestAgent()
	if err := a.Setup(context.Background()); err != nil {
		t.Fatal(err)
	}
	a.Compact = CompactConfig{Enabled: true, TokenBudget: 1, PinLastTurns: 1}
	a.State.Messages = []message.Message{
		message.NewText(message.RoleSystem, "you are an assistant"),
		message.NewText(message.RoleUser, "turn one"),
		message.NewText(message.RoleAssistant, "reply one"),
		message.NewText(message.RoleUser, "turn two"),
	}

	if err := a.compactPass(context.Background()); err != nil {
		t.Fatal(err)
	}

	var systemCount int
	for _, m := range a.State.Messages {
		if m.Role == message.RoleSystem {
			systemCount++
		}
	}
	if systemCount != 2 {
		t.Fatalf("expected the original system message plus the synthetic summary, got %d system messages", systemCount)
	}
	var sawSummary bool
	for _, m := range a.State.Messages {
		if strings.HasPrefix(m.PlainText(), "[Conversation Summary]") {
			sawSummary = true
		}
	}
	if !sawSummary {
		t.Fatal("expected a synthetic summary message starting with \"[Conversation Summary]\"")
	}

	// A second pass must not sweep the synthetic summary (itself a
	// RoleSystem message) into the middle span to be summarized away.
	before := systemCount
	a.Compact.TokenBudget = 1
	a.State.Messages = append(a.State.Messages, message.NewText(message.RoleUser, "turn three"))
	if err := a.compactPass(context.Background()); err != nil {
		t.Fatal(err)
	}
	systemCount = 0
	for _, m := range a.State.Messages {
		if m.Role == message.RoleSystem {
			systemCount++
		}
	}
	if systemCount < before {
		t.Fatalf("expected system message count to not shrink across passes, got %d < %d", systemCount, before)
	}
}
