// Package agent implements the Agent loop (spec §4.9): a long-lived front
// end that drives the same Brain and tool surface as a single Brain.Step
// call, but across many turns, with context-management knobs (decay,
// compaction) the Brain itself does not own. Grounded on the teacher's
// cmd/ REPL-style driver loop (cmds/*.go), generalized from "read a line,
// call the generator, print the reply" into Setup/Step/Close lifecycle
// methods a caller drives explicitly.
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/debugs"
	"github.com/reusee/minion/interpreter"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/tool"
	"github.com/reusee/minion/tool/collection"
)

// State is the persistent conversation the Agent drives forward one Step
// at a time, mirroring spec §4.9's "optional persistent AgentState".
type State struct {
	Messages []message.Message
	Steps    int
}

// DecayConfig controls the decay pass (spec §4.9 invariant: large,
// non-system content is written out to a side file and replaced with a
// reference after it ages past a step threshold).
type DecayConfig struct {
	Enabled     bool
	MaxAgeSteps int
	MaxBytes    int
	Dir         string
}

// CompactConfig controls the compaction pass: pin every system message and
// the last N non-system messages, summarize everything in between once the estimated
// token count crosses a threshold.
type CompactConfig struct {
	Enabled      bool
	TokenBudget  int
	PinLastTurns int
	CompactModel string
}

// Agent is a long-lived front end over a Brain: an LLM alias, the Brain
// itself, a tool list, optional skills/collections, optional persistent
// state, a code interpreter, and context-management knobs (spec §4.9).
type Agent struct {
	Model        string
	Brain        *brain.Brain
	Tools        []tool.Descriptor
	RawTools     []any // callables auto-converted to tool.Descriptor during Setup
	Collections  []collection.Collection
	Skills       *collection.Skills
	State        *State
	Interp       *interpreter.Interpreter
	Decay        DecayConfig
	Compact      CompactConfig
	Tokenizer    Tokenizer
	// Tap, when set, is invoked after each Step with the current state
	// exposed as Starlark-reachable globals, reusing the teacher's REPL
	// inspection hook (debugs/tap.go) to let a caller drop into a live
	// session against the Agent's own variables instead of the
	// generator_args/contents/system_prompt/func_map globals it
	// originally exposed.
	Tap debugs.Tap

	setupDone bool
}

// Setup is idempotent. It initializes the Brain if absent, then: (1) sets
// up all tool collections; (2) auto-converts any raw callables in
// RawTools; (3) registers each skill as a tool, whose invocation returns
// the skill's instruction and script sources — the scripts are not
// executed into the interpreter namespace.
func (a *Agent) Setup(ctx context.Context) error {
	if a.setupDone {
		return nil
	}

	if a.Brain == nil {
		a.Brain = brain.New(brain.NewModelRegistry(), tool.NewRegistry(), nil)
	}

	// (1) set up all tool collections.
	for _, c := range a.Collections {
		if err := c.Setup(ctx); err != nil {
			return fmt.Errorf("agent: setting up collection: %w", err)
		}
		a.Brain.Tools.RegisterMany(c.Tools()...)
	}

	// (2) auto-convert any raw callables in RawTools.
	for i, raw := range a.RawTools {
		d, err := tool.FromFunc(fmt.Sprintf("tool_%d", i), "", raw)
		if err != nil {
			return fmt.Errorf("agent: converting raw tool: %w", err)
		}
		a.Tools = append(a.Tools, d)
	}
	a.Brain.Tools.RegisterMany(a.Tools...)
	a.Brain.Tools.Register(fileReadTool())

	// (3) register skill tools alongside the rest of Brain.Tools.
	if a.Interp == nil {
		a.Interp = interpreter.New(a.Brain.Tools)
	}
	if a.Skills != nil {
		if err := a.Skills.Setup(ctx); err != nil {
			return fmt.Errorf("agent: setting up skills: %w", err)
		}
		a.Brain.Tools.RegisterMany(a.Skills.Tools()...)
	}
	a.Brain.Interp = a.Interp

	// (4) initialize the Brain if absent — already guaranteed above.
	if a.State == nil {
		a.State = &State{}
	}
	if a.Tokenizer == nil {
		a.Tokenizer = NewBPETokenizer()
	}

	a.setupDone = true
	if a.Brain.Logger != nil {
		a.Brain.Logger.InfoContext(ctx, "agent: setup complete",
			"tools", len(a.Brain.Tools.GetAllToolNames()),
			"collections", len(a.Collections),
		)
	}
	return nil
}

// Close releases all collections and removes the decay files
// (decay-step*.txt) the decay pass wrote under Decay.Dir; the directory
// itself is left in place (spec §4.9).
func (a *Agent) Close() error {
	var firstErr error
	for _, c := range a.Collections {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Decay.Dir != "" {
		files, _ := filepath.Glob(filepath.Join(a.Decay.Dir, "decay-step*.txt"))
		for _, f := range files {
			if err := os.Remove(f); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// WithAgent calls Setup, runs fn, then always calls Close — the
// spec §4.9 lifecycle wrapped as a single helper for callers that do not
// need to hold the Agent open across multiple unrelated operations.
func WithAgent(ctx context.Context, a *Agent, fn func(ctx context.Context, a *Agent) error) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
