package brain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reusee/minion/interpreter"
	"github.com/reusee/minion/logs"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/tool"
)

// Brain owns process-wide configuration: the model registry, the default
// provider alias, the tool registry, and the default code interpreter,
// mirroring spec §4.8's responsibility list.
type Brain struct {
	Models          *ModelRegistry
	Workers         *Registry
	Tools           *tool.Registry
	DefaultProvider string
	DefaultRoute    string

	// Interp is the shared code interpreter workers reach for when a
	// candidate needs to run Python/Starlark source (worker "python"/"code").
	// Step lazily builds one against Tools if nil.
	Interp *interpreter.Interpreter

	// Logger receives structured diagnostics for each Step — route
	// resolution and worker failures. Defaults to slog.Default() so a
	// Brain built without one still logs, matching the teacher's own
	// logs.Logger usage (a *slog.Logger alias) rather than a silent no-op.
	Logger logs.Logger
}

// New builds a Brain. A nil workers registry falls back to the
// process-wide DefaultRegistry populated by every worker package's init().
func New(models *ModelRegistry, tools *tool.Registry, workers *Registry) *Brain {
	if workers == nil {
		workers = DefaultRegistry()
	}
	if tools == nil {
		tools = tool.NewRegistry()
	}
	return &Brain{
		Models:       models,
		Workers:      workers,
		Tools:        tools,
		DefaultRoute: "moderator",
		Logger:       slog.Default(),
	}
}

// StepRequest is the argument bundle to Step, mirroring spec §4.8's
// step(query|messages, route?, stream?, tools?, dataset?, cache_plan?, ...).
type StepRequest struct {
	Query    string
	Messages []message.Message
	Route    string
	Stream   bool
	Tools    []string
	Dataset  string
	Metadata map[string]any
}

// Step runs the Brain's four-operation pipeline (spec §4.8): build an
// Input, ensure a code interpreter is present, instantiate and invoke the
// worker named by req.Route (DefaultRoute, the Moderator unless
// configured otherwise, when req.Route is empty), and return the resulting AgentResponse (the spec's
// (answer, score, terminated, truncated, info) tuple, flattened into the
// struct's fields — info is AgentResponse.Metadata plus Usage).
func (b *Brain) Step(ctx context.Context, req StepRequest) (*AgentResponse, error) {
	// 1. Build an Input from arguments.
	in, err := b.buildInput(req)
	if err != nil {
		return nil, fmt.Errorf("brain: building input: %w", err)
	}

	// 2. Ensure a code interpreter is present (sync variant here; the Agent
	// loop substitutes the async variant itself when streaming end-to-end,
	// per spec §4.9 — the Brain only guarantees one exists at all).
	if b.Interp == nil {
		b.Interp = interpreter.New(b.Tools)
	}

	// 3. Instantiate and invoke the route worker. An explicit req.Route is
	// instantiated directly, without going through the Moderator.
	route := req.Route
	if route == "" {
		route = b.DefaultRoute
	}
	moderator, err := b.Workers.New(route)
	if err != nil {
		b.logger().ErrorContext(ctx, "brain: unknown route", "route", route, "error", err)
		return nil, fmt.Errorf("brain: resolving route %q: %w", route, err)
	}

	resp, err := moderator.Execute(ctx, in, b)
	if err != nil {
		b.logger().ErrorContext(ctx, "brain: worker failed", "route", route, "error", err)
		return nil, fmt.Errorf("brain: worker %q: %w", route, err)
	}

	// 4. Return (answer, score, terminated, truncated, info). info carries
	// the full AgentResponse and cost already, via Metadata/Usage.
	if resp.Metadata == nil {
		resp.Metadata = map[string]any{}
	}
	resp.Metadata["route"] = route
	return resp, nil
}

func (b *Brain) logger() logs.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Brain) buildInput(req StepRequest) (*Input, error) {
	msgs := req.Messages
	if req.Query != "" {
		msgs = append(append([]message.Message{}, msgs...), message.NewText(message.RoleUser, req.Query))
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no query or messages given")
	}
	return &Input{
		Messages: msgs,
		Route:    req.Route,
		Stream:   req.Stream,
		Tools:    req.Tools,
		Dataset:  req.Dataset,
		Metadata: req.Metadata,
	}, nil
}
