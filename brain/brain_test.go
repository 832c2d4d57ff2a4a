package brain

import (
	"context"
	"errors"
	"testing"

	"github.com/reusee/minion/message"
	"github.com/reusee/minion/provider"
)

type fakeProvider struct{}

func (fakeProvider) Generate(ctx context.Context, req provider.Request) (provider.Response, error) {
	return provider.Response{Message: message.NewText(message.RoleAssistant, "ok"), StopReason: "stop"}, nil
}

func (fakeProvider) GenerateStream(ctx context.Context, req provider.Request) (<-chan provider.StreamChunk, error) {
	return nil, nil
}

func (fakeProvider) CountTokens(text string) (int, error) { return len(text) / 4, nil }

func (fakeProvider) GetCost() *message.CostRecord { return &message.CostRecord{} }

func TestModelRegistryResolvesAlias(t *testing.T) {
	models := NewModelRegistry()
	models.RegisterAPIType("fake", func(spec ProviderSpec) (provider.Provider, error) {
		return fakeProvider{}, nil
	})
	models.RegisterAlias(ProviderSpec{Name: "default", APIType: "fake"})

	p, err := models.Resolve("default")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Generate(context.Background(), provider.Request{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StopReason != "stop" {
		t.Fatalf("got %+v", resp)
	}
}

func TestModelRegistryUnknownAPIType(t *testing.T) {
	models := NewModelRegistry()
	models.RegisterAlias(ProviderSpec{Name: "x", APIType: "nope"})
	if _, err := models.Resolve("x"); err == nil {
		t.Fatal("expected error for unregistered api_type")
	}
}

type echoWorker struct{}

func (echoWorker) Execute(ctx context.Context, in *Input, b *Brain) (*AgentResponse, error) {
	return &AgentResponse{
		Answer:     in.Query(),
		Messages:   in.Messages,
		Score:      1,
		Terminated: true,
	}, nil
}

func TestBrainStepBuildsInputAndDelegatesToModerator(t *testing.T) {
	workers := NewIsolatedRegistry()
	workers.Register("moderator", func() Worker { return echoWorker{} })

	b := New(NewModelRegistry(), nil, workers)
	resp, err := b.Step(context.Background(), StepRequest{Query: "what is 2+2?"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "what is 2+2?" {
		t.Fatalf("got %+v", resp)
	}
	if !resp.Terminated {
		t.Fatal("expected terminated response")
	}
	if resp.Metadata["route"] != "moderator" {
		t.Fatalf("expected route metadata, got %+v", resp.Metadata)
	}
	if b.Interp == nil {
		t.Fatal("expected Step to lazily construct an interpreter")
	}
}

func TestBrainStepMissingQueryAndMessages(t *testing.T) {
	workers := NewIsolatedRegistry()
	workers.Register("moderator", func() Worker { return echoWorker{} })
	b := New(NewModelRegistry(), nil, workers)

	if _, err := b.Step(context.Background(), StepRequest{}); err == nil {
		t.Fatal("expected error for empty step request")
	}
}

type failingWorker struct{}

func (failingWorker) Execute(ctx context.Context, in *Input, b *Brain) (*AgentResponse, error) {
	return nil, errors.New("boom")
}

func TestBrainStepPropagatesWorkerError(t *testing.T) {
	workers := NewIsolatedRegistry()
	workers.Register("moderator", func() Worker { return failingWorker{} })
	b := New(NewModelRegistry(), nil, workers)

	if _, err := b.Step(context.Background(), StepRequest{Query: "hi"}); err == nil {
		t.Fatal("expected worker error to propagate")
	}
}
