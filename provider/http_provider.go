package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/reusee/minion/logs"
	"github.com/reusee/minion/message"
	"github.com/reusee/minion/nets"
)

// HTTPProvider talks an OpenAI-chat-completions-shaped wire protocol over
// nets.HTTPClient, ported from generators.OpenAI (generators/open_ai.go):
// same streaming-SSE decode loop, same accumulate-then-flush parser, same
// HTTP-status-to-error-kind classification as generators/open_ai_error.go,
// generalized from a single vendor to any endpoint that speaks this shape
// (OpenAI itself, and the many OpenAI-compatible vendors the teacher wires
// in generators/open_ai_compatible.go: OpenRouter, Deepseek, Baidu, Tencent,
// Huoshan, Aliyun, Zhipu, Vercel).
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Model   string

	client nets.HTTPClient
	logger logs.Logger

	mu   sync.Mutex
	cost message.CostRecord
}

var _ Provider = (*HTTPProvider)(nil)

func NewHTTPProvider(client nets.HTTPClient, logger logs.Logger, baseURL, apiKey, model string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  client,
		logger:  logger,
	}
}

func (p *HTTPProvider) GetCost() *message.CostRecord {
	return &p.cost
}

func (p *HTTPProvider) CountTokens(text string) (int, error) {
	// byte/4 heuristic, the same fallback estimator shape as
	// generators.BPETokenCounter's error path (generators/count_tokens.go);
	// a precise tokenizer can be substituted by wrapping HTTPProvider.
	return len(text) / 4, nil
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (Response, error) {
	chunks, err := p.GenerateStream(ctx, req)
	if err != nil {
		return Response{}, err
	}

	var msg message.Message
	msg.Role = message.RoleAssistant
	var usage message.Usage
	var stopReason string
	var textBuf strings.Builder
	var toolCalls []message.Part

	for chunk := range chunks {
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if chunk.StopReason != "" {
			stopReason = chunk.StopReason
		}
		switch d := chunk.Delta.(type) {
		case message.Text:
			textBuf.WriteString(string(d))
		case message.ToolCall:
			toolCalls = append(toolCalls, d)
		}
	}

	if textBuf.Len() > 0 {
		msg.Parts = append(msg.Parts, message.Text(textBuf.String()))
	}
	msg.Parts = append(msg.Parts, toolCalls...)

	p.cost.Add(usage)

	return Response{Message: msg, Usage: usage, StopReason: stopReason}, nil
}

func (p *HTTPProvider) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	wireReq := toWireRequest(p.Model, req)

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &CallError{Kind: ErrProviderUnavailable, Model: p.Model, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, classifyHTTPError(resp.StatusCode, p.Model, respBody)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		parser := new(wireParser)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			default:
			}

			line := scanner.Text()
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := line[len("data: "):]
			if data == "[DONE]" {
				break
			}

			var streamResp wireStreamResponse
			if err := json.Unmarshal([]byte(data), &streamResp); err != nil {
				p.logger.WarnContext(ctx, "provider stream decode error", "error", err)
				continue
			}

			if streamResp.Usage != nil {
				u := usageFromWire(*streamResp.Usage)
				select {
				case out <- StreamChunk{Usage: &u}:
				case <-ctx.Done():
					return
				}
			}

			if len(streamResp.Choices) == 0 {
				continue
			}
			choice := streamResp.Choices[0]

			for _, chunk := range parser.input(choice.Delta) {
				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}

			if choice.FinishReason != "" {
				if parser.callName != "" {
					select {
					case out <- parser.flush():
					case <-ctx.Done():
						return
					}
				}
				select {
				case out <- StreamChunk{StopReason: choice.FinishReason, Done: true}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func classifyHTTPError(status int, model string, body []byte) error {
	var kind error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrAuthError
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status == http.StatusRequestEntityTooLarge:
		kind = ErrContextOverflow
	case status >= 500:
		kind = ErrProviderUnavailable
	default:
		kind = ErrBadRequest
	}
	return &CallError{Kind: kind, Model: model, Err: errors.New(string(body))}
}

// wire* types mirror generators/open_ai.go's ChatCompletion* request/response
// shapes, trimmed to the fields this provider actually uses.

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
}

type wireMessage struct {
	Role       string      `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCalls  []wireCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

type wireCall struct {
	ID       string          `json:"id,omitempty"`
	Type     string          `json:"type"`
	Function wireCallPayload `json:"function"`
}

type wireCallPayload struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type wireTool struct {
	Type     string             `json:"type"`
	Function wireFunctionSchema `json:"function"`
}

type wireFunctionSchema struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

type wireStreamResponse struct {
	Choices []wireStreamChoice `json:"choices"`
	Usage   *wireUsage         `json:"usage"`
}

type wireStreamChoice struct {
	Delta        wireDelta `json:"delta"`
	FinishReason string    `json:"finish_reason"`
}

type wireDelta struct {
	Content   string     `json:"content,omitempty"`
	Role      string     `json:"role,omitempty"`
	ToolCalls []wireCall `json:"tool_calls,omitempty"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	PromptTokensDetails *struct {
		CachedTokens int `json:"cached_tokens"`
	} `json:"prompt_tokens_details,omitempty"`
}

func usageFromWire(u wireUsage) message.Usage {
	usage := message.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
	}
	if u.PromptTokensDetails != nil {
		usage.CachedTokens = u.PromptTokensDetails.CachedTokens
	}
	return usage
}

func toWireRequest(model string, req Request) wireRequest {
	wire := wireRequest{
		Model:       model,
		Stream:      true,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if wire.Model == "" {
		wire.Model = req.Model
	}

	for _, msg := range req.Messages {
		wire.Messages = append(wire.Messages, toWireMessage(msg))
	}

	for _, tool := range req.Tools {
		wire.Tools = append(wire.Tools, wireTool{
			Type: "function",
			Function: wireFunctionSchema{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  toWireParameters(tool.Inputs),
			},
		})
	}

	switch req.ToolChoice {
	case "":
	case "auto", "none", "required":
		wire.ToolChoice = req.ToolChoice
	default:
		wire.ToolChoice = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": req.ToolChoice},
		}
	}

	return wire
}

func toWireMessage(msg message.Message) wireMessage {
	wire := wireMessage{
		Role:       string(msg.Role),
		ToolCallID: msg.ToolCallID,
	}

	var text strings.Builder
	for _, part := range msg.Parts {
		switch p := part.(type) {
		case message.Text:
			text.WriteString(string(p))
		case message.ImageURL:
			// text-only wire shape: describe inline rather than drop.
			text.WriteString(fmt.Sprintf("[image: %s]", string(p)))
		case message.ImageBase64:
			text.WriteString(fmt.Sprintf("[image: %s]", p.DataURL()))
		case message.ToolCall:
			argsBytes, _ := json.Marshal(p.Args)
			wire.ToolCalls = append(wire.ToolCalls, wireCall{
				ID:   p.ID,
				Type: "function",
				Function: wireCallPayload{
					Name:      p.Name,
					Arguments: string(argsBytes),
				},
			})
		case message.ToolResult:
			resultBytes, _ := json.Marshal(p.Result)
			text.Write(resultBytes)
			wire.ToolCallID = p.ToolCallID
		}
	}
	wire.Content = text.String()

	return wire
}

func toWireParameters(inputs map[string]message.ToolSchema) any {
	properties := make(map[string]any, len(inputs))
	var required []string
	for name, schema := range inputs {
		properties[name] = schemaToJSON(schema)
		if !schema.Optional {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func schemaToJSON(s message.ToolSchema) map[string]any {
	out := map[string]any{
		"type":        s.Type,
		"description": s.Description,
	}
	if s.Items != nil {
		out["items"] = schemaToJSON(*s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = schemaToJSON(prop)
		}
		out["properties"] = props
	}
	return out
}

// wireParser accumulates streamed tool-call argument fragments into whole
// message.ToolCall parts, ported from generators.OpenAIParser
// (generators/open_ai_parser.go) minus the Content/Thought merging, which
// package message's single-writer CostRecord model doesn't need since
// StreamChunk already emits one Part per delta.
type wireParser struct {
	callID   string
	callName string
	callArgs strings.Builder
}

func (p *wireParser) input(delta wireDelta) []StreamChunk {
	var chunks []StreamChunk

	if delta.Content != "" {
		chunks = append(chunks, StreamChunk{Delta: message.Text(delta.Content)})
	}

	for _, call := range delta.ToolCalls {
		if call.Function.Name != "" {
			if p.callName != "" {
				chunks = append(chunks, p.flush())
			}
			p.callID = call.ID
			p.callName = call.Function.Name
		}
		if call.Function.Arguments != "" {
			p.callArgs.WriteString(call.Function.Arguments)
		}
	}

	return chunks
}

func (p *wireParser) flush() StreamChunk {
	var args map[string]any
	if p.callArgs.Len() > 0 {
		_ = json.Unmarshal([]byte(p.callArgs.String()), &args)
	}
	chunk := StreamChunk{Delta: message.ToolCall{ID: p.callID, Name: p.callName, Args: args}}
	p.callID, p.callName = "", ""
	p.callArgs.Reset()
	return chunk
}
