package check

import (
	"context"
	"fmt"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/interpreter"
)

// IOExample is one held-out (input, output) pair CodiumCheckMinion runs
// the candidate against.
type IOExample struct {
	Input    string // a Starlark expression evaluating the candidate's entry point
	Expected any
}

// CodiumCheckMinion runs the candidate on a held-out (input, output) set,
// scoring pass rate and reporting the first diverging example (spec
// §4.7), generalized from the teacher/original_source's CodiumCheckMinion
// to run against this module's interpreter instead of a sandboxed
// subprocess.
type CodiumCheckMinion struct {
	Interp   *interpreter.Interpreter
	Examples []IOExample
}

func (cm CodiumCheckMinion) Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (float64, string, error) {
	if len(cm.Examples) == 0 {
		return 1, "", nil
	}
	passed := 0
	var firstDivergence string
	for _, ex := range cm.Examples {
		source := candidate.Answer + "\n_codium_result = " + ex.Input
		result, err := cm.Interp.Run(ctx, "codium", source)
		if err != nil {
			if firstDivergence == "" {
				firstDivergence = fmt.Sprintf("%s: error: %s", ex.Input, err)
			}
			continue
		}
		got := result.Namespace["_codium_result"]
		if equalValues(got, ex.Expected, DefaultTolerance) {
			passed++
		} else if firstDivergence == "" {
			firstDivergence = fmt.Sprintf("%s: got %v, want %v", ex.Input, got, ex.Expected)
		}
	}
	return float64(passed) / float64(len(cm.Examples)), firstDivergence, nil
}
