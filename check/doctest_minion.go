package check

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/interpreter"
)

// doctestPattern finds a ">>> expr" line (indentation allowed) followed by
// its expected output line(s) up to the next ">>>" or a blank line,
// mirroring Python's doctest convention (spec §4.7's DoctestMinion,
// "parses docstring tests"). ParseDoctests also cuts the expected output
// at a closing docstring quote.
var doctestPattern = regexp.MustCompile(`(?m)^[ \t]*>>>[ \t]*(.+)\n((?:[ \t]*(?:[^\s>]|>[^>\n]|>>[^>\n])[^\n]*\n?)*)`)

// DoctestCase is one parsed >>> example.
type DoctestCase struct {
	Expr     string
	Expected string
}

// ParseDoctests extracts >>> examples from a docstring-shaped text block.
func ParseDoctests(text string) []DoctestCase {
	var cases []DoctestCase
	for _, m := range doctestPattern.FindAllStringSubmatch(text, -1) {
		expr := strings.TrimSpace(m[1])
		expected := m[2]
		for _, delim := range []string{`"""`, `'''`} {
			if idx := strings.Index(expected, delim); idx >= 0 {
				expected = expected[:idx]
			}
		}
		expected = strings.TrimSpace(expected)
		if expr == "" {
			continue
		}
		cases = append(cases, DoctestCase{Expr: expr, Expected: expected})
	}
	return cases
}

// DoctestMinion parses docstring tests from the candidate and runs them
// through the interpreter; score is the fraction passing, feedback
// enumerates the first K failures (spec §4.7).
type DoctestMinion struct {
	Interp *interpreter.Interpreter
	K      int // defaults to 5
}

func (dm DoctestMinion) Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (float64, string, error) {
	cases := ParseDoctests(candidate.Answer)
	if len(cases) == 0 {
		return 1, "", nil
	}
	k := dm.K
	if k <= 0 {
		k = 5
	}

	passed := 0
	var failures []string
	for _, c := range cases {
		source := candidate.Answer + "\n_doctest_result = repr(" + c.Expr + ")"
		result, err := dm.Interp.Run(ctx, "doctest", source)
		if err != nil {
			failures = append(failures, fmt.Sprintf(">>> %s: error: %s", c.Expr, err))
			continue
		}
		got := fmt.Sprintf("%v", result.Namespace["_doctest_result"])
		got = strings.Trim(got, `"`)
		if strings.TrimSpace(got) == c.Expected {
			passed++
		} else {
			failures = append(failures, fmt.Sprintf(">>> %s: got %q, want %q", c.Expr, got, c.Expected))
		}
	}
	score := float64(passed) / float64(len(cases))
	return score, joinFirst(failures, k), nil
}
