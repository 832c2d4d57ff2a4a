package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/interpreter"
)

// Case is one (call, expected) pair TestMinion runs against a candidate.
type Case struct {
	Call     string // a Starlark expression, e.g. `solve(4)`
	Expected any
}

// TestMinion runs a suite of (call, expected) pairs against the
// candidate's source via the interpreter package (C4), scoring the
// fraction of passing calls (spec §4.7).
type TestMinion struct {
	Interp *interpreter.Interpreter
	Cases  []Case
}

func (tm TestMinion) Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (float64, string, error) {
	if len(tm.Cases) == 0 {
		return 1, "", nil
	}
	passed := 0
	var failures []string
	for _, c := range tm.Cases {
		source := candidate.Answer + "\n_test_result = " + c.Call
		result, err := tm.Interp.Run(ctx, "test", source)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: error: %s", c.Call, err))
			continue
		}
		got := result.Namespace["_test_result"]
		if equalValues(got, c.Expected, DefaultTolerance) {
			passed++
		} else {
			failures = append(failures, fmt.Sprintf("%s: got %v, want %v", c.Call, got, c.Expected))
		}
	}
	score := float64(passed) / float64(len(tm.Cases))
	return score, joinFirst(failures, 5), nil
}

// equalValues compares two interpreter-namespace values under the
// configured Tolerance: numeric comparisons allow Numeric absolute
// difference, string comparisons trim whitespace and respect
// CaseInsensitive, per spec §4.7's closing sentence.
func equalValues(got, want any, tol Tolerance) bool {
	switch w := want.(type) {
	case int:
		return numericEqual(got, float64(w), tol.Numeric)
	case int64:
		return numericEqual(got, float64(w), tol.Numeric)
	case float64:
		return numericEqual(got, w, tol.Numeric)
	case string:
		g, ok := got.(string)
		if !ok {
			return false
		}
		return stringEqual(g, w, tol.CaseInsensitive)
	default:
		return fmt.Sprintf("%v", got) == fmt.Sprintf("%v", want)
	}
}

func numericEqual(got any, want, tol float64) bool {
	var g float64
	switch v := got.(type) {
	case int64:
		g = float64(v)
	case float64:
		g = v
	default:
		return false
	}
	diff := g - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tol
}

func stringEqual(got, want string, caseInsensitive bool) bool {
	g := strings.TrimSpace(got)
	w := strings.TrimSpace(want)
	if caseInsensitive {
		return strings.EqualFold(g, w)
	}
	return g == w
}

// joinFirst joins the first n entries of failures with newlines, the
// "first K failures" enumeration spec §4.7 names for DoctestMinion and
// reused here for TestMinion's feedback.
func joinFirst(failures []string, n int) string {
	if len(failures) > n {
		failures = failures[:n]
	}
	return strings.Join(failures, "\n")
}
