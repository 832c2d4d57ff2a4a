package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/reusee/minion/actionnode"
	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/message"
)

func init() {
	brain.RegisterWorker("plan", func() brain.Worker { return Plan{} })
}

const planSystemPrompt = `Break the task into an ordered list of subtasks. Respond with a fenced ` + "```json" + ` block containing an array of objects: [{"name": "...", "route": "raw|cot|python|code", "query": "..."}]. Order matters: earlier tasks run first and their outputs are available to later ones.`

var jsonBlockPattern = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")

// planTask is one entry of the LLM-produced task list.
type planTask struct {
	Name  string `json:"name"`
	Route string `json:"route"`
	Query string `json:"query"`
}

// Plan is the topological-plan strategy (spec §4.6 "plan" row): the LLM
// proposes an ordered task list, then each task runs sequentially through
// a named sub-worker with prior task outputs threaded via Input.Metadata.
// A task's sub-worker failure fails only that task; upstream (already-run)
// tasks remain completed and their outputs stay in Metadata.
//
// Execution stays strictly sequential, unlike Ensemble's
// syncs.Semaphore-bounded concurrency: every task's Metadata carries the
// full plan_outputs map built so far, so a later task may reference any
// earlier one's output. Running tasks concurrently would race that map
// and could hand a task an incomplete view of its dependencies.
type Plan struct {
	Model string
}

func (pl Plan) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	p, err := resolveProvider(b, pl.Model)
	if err != nil {
		return nil, err
	}
	history := append([]message.Message{message.NewText(message.RoleSystem, planSystemPrompt)}, in.Messages...)
	node := actionnode.Node{Provider: p}
	result, err := node.Run(ctx, nil, history)
	if err != nil {
		return nil, err
	}

	text := lastAssistantText(result.Messages)
	tasks, err := parseTasks(text)
	if err != nil {
		return &brain.AgentResponse{
			Messages:   result.Messages,
			Terminated: false,
			Truncated:  true,
			Metadata:   map[string]any{"error": err.Error()},
		}, nil
	}

	outputs := map[string]any{}
	completed := make([]string, 0, len(tasks))
	var lastAnswer string
	var usage message.Usage
	for _, task := range tasks {
		sub, err := b.Workers.New(task.Route)
		if err != nil {
			outputs[task.Name] = map[string]any{"error": err.Error()}
			continue
		}
		taskMeta := map[string]any{}
		for k, v := range in.Metadata {
			taskMeta[k] = v
		}
		taskMeta["plan_outputs"] = outputs
		taskIn := &brain.Input{
			Messages: []message.Message{message.NewText(message.RoleUser, task.Query)},
			Metadata: taskMeta,
		}
		resp, err := sub.Execute(ctx, taskIn, b)
		if err != nil {
			outputs[task.Name] = map[string]any{"error": err.Error()}
			continue
		}
		outputs[task.Name] = resp.Answer
		lastAnswer = resp.Answer
		completed = append(completed, task.Name)
		usage = addUsage(usage, resp.Usage)
	}

	return &brain.AgentResponse{
		Answer:     lastAnswer,
		Messages:   result.Messages,
		Score:      float64(len(completed)) / float64(max(len(tasks), 1)),
		Terminated: len(completed) == len(tasks),
		Truncated:  len(completed) != len(tasks),
		Usage:      usage,
		Metadata:   map[string]any{"completed_tasks": completed, "outputs": outputs},
	}, nil
}

func parseTasks(text string) ([]planTask, error) {
	raw := text
	if m := jsonBlockPattern.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	var tasks []planTask
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("worker: parsing plan task list: %w", err)
	}
	return tasks, nil
}
