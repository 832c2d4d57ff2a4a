package worker

import (
	"context"
	"testing"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/interpreter"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
	"github.com/reusee/minion/tool"
)

// scriptedProvider returns each queued response in order, looping on the
// last one once exhausted.
type scriptedProvider struct {
	responses []provider.Response
	i         int
}

func (p *scriptedProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	r := p.responses[p.i]
	if p.i < len(p.responses)-1 {
		p.i++
	}
	return r, nil
}

func (p *scriptedProvider) GenerateStream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	return nil, nil
}

func (p *scriptedProvider) CountTokens(text string) (int, error) { return 0, nil }
func (p *scriptedProvider) GetCost() *message.CostRecord         { return &message.CostRecord{} }

func newTestBrain(t *testing.T, p provider.Provider) *brain.Brain {
	t.Helper()
	models := brain.NewModelRegistry()
	models.RegisterAPIType("fake", func(spec brain.ProviderSpec) (provider.Provider, error) { return p, nil })
	models.RegisterAlias(brain.ProviderSpec{Name: "default", APIType: "fake"})

	workers := brain.NewIsolatedRegistry()
	workers.Register("raw", func() brain.Worker { return Raw{} })
	workers.Register("cot", func() brain.Worker { return CoT{} })
	workers.Register("python", func() brain.Worker { return Python{} })
	workers.Register("code", func() brain.Worker { return Code{} })

	tools := tool.NewRegistry()
	b := brain.New(models, tools, workers)
	b.DefaultProvider = "default"
	b.Interp = interpreter.New(tools)
	return b
}

func TestRawExecuteReturnsAssistantText(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "the sky is blue"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "why is the sky blue?")}}

	resp, err := Raw{}.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "the sky is blue" || !resp.Terminated {
		t.Fatalf("got %+v", resp)
	}
}

func TestCoTExtractsFinalAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "step one, step two.\n\nFinal Answer: 42"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "what is 6*7?")}}

	resp, err := CoT{}.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "42" {
		t.Fatalf("got %+v", resp.Answer)
	}
}

func TestCoTFallsBackToLastParagraph(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "reasoning here.\n\nthe value is 7"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "q")}}

	resp, err := CoT{}.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "the value is 7" {
		t.Fatalf("got %+v", resp.Answer)
	}
}

func TestPythonExecutesSnippetAndReturnsFinalAnswer(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "```python\nfinal_answer(6*7)\n```"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "compute 6*7")}}

	resp, err := Python{}.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "42" || !resp.Terminated {
		t.Fatalf("got %+v", resp)
	}
}

func TestPythonRetriesOnExecutionError(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "```python\nfail(\"oops\")\n```"), StopReason: "stop"},
		{Message: message.NewText(message.RoleAssistant, "```python\nfinal_answer(1)\n```"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "q")}}

	resp, err := Python{MaxRounds: 3}.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "1" {
		t.Fatalf("got %+v", resp)
	}
}

func TestCodeExtractsEndSentinelBlock(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "Thought: compute it\n```python\nfinal_answer(9)\n```<END>"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "q")}}

	resp, err := Code{}.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "9" {
		t.Fatalf("got %+v", resp)
	}
}

func TestDCoTMajorityVote(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "Final Answer: A"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "q")}}

	resp, err := (&DCoT{Samples: 3}).Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "A" {
		t.Fatalf("got %+v", resp)
	}
}

func TestModeratorUsesExplicitRoute(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "direct answer"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "q")}, Route: "raw"}

	resp, err := (&Moderator{}).Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "direct answer" {
		t.Fatalf("got %+v", resp)
	}
}

func TestEnsembleMajorityAggregation(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "X"), StopReason: "stop"},
	}}
	b := newTestBrain(t, p)
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "q")}}

	ens := &Ensemble{Members: []EnsembleMember{{Route: "raw"}, {Route: "raw"}, {Route: "raw"}}}
	resp, err := ens.Execute(context.Background(), in, b)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "X" {
		t.Fatalf("got %+v", resp)
	}
}

func TestParseTasksFromFencedJSON(t *testing.T) {
	text := "```json\n[{\"name\": \"a\", \"route\": \"raw\", \"query\": \"q1\"}]\n```"
	tasks, err := parseTasks(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Name != "a" {
		t.Fatalf("got %+v", tasks)
	}
}

func TestExtractCodePrefersEndSentinelVariants(t *testing.T) {
	if code, ok := extractCode("```python\nx = 1\n```<END>"); !ok || code != "x = 1\n" {
		t.Fatalf("got %q %v", code, ok)
	}
	if code, ok := extractCode("```python\nx = 1\n<END>\n```"); !ok || code == "" {
		t.Fatalf("got %q %v", code, ok)
	}
	if code, ok := extractCode("```python\nx = 1\n```"); !ok || code != "x = 1\n" {
		t.Fatalf("got %q %v", code, ok)
	}
}
