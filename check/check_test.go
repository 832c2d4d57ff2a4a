package check

import (
	"context"
	"testing"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/interpreter"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
	"github.com/reusee/minion/tool"
)

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

func TestParseVerdict(t *testing.T) {
	score, feedback, err := parseVerdict("Correct: false\nScore: 0.4\nFeedback: missing edge case")
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.4 || feedback != "missing edge case" {
		t.Fatalf("got %v %q", score, feedback)
	}
}

func TestCheckMinionParsesCriticResponse(t *testing.T) {
	p := &scriptedProvider{responses: []provider.Response{
		{Message: message.NewText(message.RoleAssistant, "Correct: true\nScore: 1\nFeedback: looks right"), StopReason: "stop"},
	}}
	cm := CheckMinion{Provider: p}
	in := &brain.Input{Messages: []message.Message{message.NewText(message.RoleUser, "2+2?")}}
	candidate := &brain.AgentResponse{Answer: "4"}

	score, feedback, err := cm.Check(context.Background(), in, candidate)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1 || feedback != "looks right" {
		t.Fatalf("got %v %q", score, feedback)
	}
}

func TestTestMinionScoresFractionPassing(t *testing.T) {
	tools := tool.NewRegistry()
	tm := TestMinion{
		Interp: interpreter.New(tools),
		Cases: []Case{
			{Call: "double(2)", Expected: int64(4)},
			{Call: "double(3)", Expected: int64(100)},
		},
	}
	candidate := &brain.AgentResponse{Answer: "def double(x):\n    return x * 2"}

	score, feedback, err := tm.Check(context.Background(), &brain.Input{}, candidate)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.5 {
		t.Fatalf("got %v", score)
	}
	if feedback == "" {
		t.Fatal("expected a failure description")
	}
}

func TestParseDoctests(t *testing.T) {
	text := "def f(x):\n    \"\"\"\n    >>> f(2)\n    4\n    \"\"\"\n    return x * 2"
	cases := ParseDoctests(text)
	if len(cases) != 1 || cases[0].Expr != "f(2)" || cases[0].Expected != "4" {
		t.Fatalf("got %+v", cases)
	}
}

func TestLoopAcceptsOnFirstPass(t *testing.T) {
	checker := fakeChecker{score: 0.95}
	loop := Loop{Checker: checker, Improver: fakeImprover{}}
	out, err := loop.Run(context.Background(), &brain.Input{}, &brain.AgentResponse{Answer: "x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Accepted || out.Rounds != 0 {
		t.Fatalf("got %+v", out)
	}
}

func TestLoopStopsOnStagnation(t *testing.T) {
	checker := &stagnantChecker{scores: []float64{0.1, 0.1, 0.1, 0.1}}
	loop := Loop{Checker: checker, Improver: fakeImprover{}, MaxRounds: 5}
	out, err := loop.Run(context.Background(), &brain.Input{}, &brain.AgentResponse{Answer: "x"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Accepted {
		t.Fatal("expected stagnation, not acceptance")
	}
	if out.Rounds != 2 {
		t.Fatalf("expected to stop after 2 stagnant rounds, got %d", out.Rounds)
	}
}

type fakeChecker struct{ score float64 }

func (f fakeChecker) Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (float64, string, error) {
	return f.score, "", nil
}

type stagnantChecker struct {
	scores []float64
	i      int
}

func (s *stagnantChecker) Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (float64, string, error) {
	v := s.scores[s.i]
	if s.i < len(s.scores)-1 {
		s.i++
	}
	return v, "no improvement", nil
}

type fakeImprover struct{}

func (fakeImprover) Improve(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse, feedback string, b *brain.Brain) (*brain.AgentResponse, error) {
	return &brain.AgentResponse{Answer: candidate.Answer}, nil
}
