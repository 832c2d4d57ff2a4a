package worker

import (
	"context"
	"sync"

	"github.com/reusee/minion/brain"
	"golang.org/x/sync/errgroup"
)

func init() {
	brain.RegisterWorker("dcot", func() brain.Worker { return &DCoT{} })
}

// DCoT is the dynamic chain-of-thought strategy: N parallel CoT calls with
// self-consistency majority voting over the extracted answer, ties broken
// by the highest individually-scored candidate. Grounded on spec §4.6's
// dcot row; fan-out via golang.org/x/sync/errgroup, same as the teacher's
// existing usage (a direct dependency in go.mod already covering
// multi_tool_use.parallel in this module's interpreter package).
type DCoT struct {
	Model   string
	Samples int // defaults to 5
}

func (d *DCoT) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	n := d.Samples
	if n <= 0 {
		n = 5
	}

	responses := make([]*brain.AgentResponse, n)
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		group.Go(func() error {
			resp, err := (CoT{Model: d.Model}).Execute(gctx, in, b)
			if err != nil {
				return nil // a failed sample just doesn't vote
			}
			mu.Lock()
			responses[i] = resp
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	votes := map[string]int{}
	var valid []*brain.AgentResponse
	for _, r := range responses {
		if r == nil {
			continue
		}
		valid = append(valid, r)
		votes[r.Answer]++
	}
	if len(valid) == 0 {
		return &brain.AgentResponse{Terminated: false, Truncated: true}, nil
	}

	best := valid[0]
	bestVotes := -1
	for _, r := range valid {
		v := votes[r.Answer]
		if v > bestVotes || (v == bestVotes && r.Score > best.Score) {
			best = r
			bestVotes = v
		}
	}

	merged := *best
	merged.Metadata = map[string]any{"samples": n, "votes": votes[best.Answer]}
	return &merged, nil
}
