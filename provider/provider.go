// Package provider generalizes the teacher's generators.Generator interface
// (generators/generator.go: Args/CountTokens/Generate against a Gemini- or
// OpenAI-shaped State) into a vendor-neutral four-operation contract over
// package message, so the Brain can treat any backend uniformly.
package provider

import (
	"context"

	"github.com/reusee/minion/message"
)

// Request is the canonical shape every Provider.Generate call receives.
type Request struct {
	Model       string
	Messages    []message.Message
	Tools       []message.ToolDescriptor
	ToolChoice  string // "", "auto", "none", or a tool name
	Temperature *float32
	MaxTokens   *int
}

// Response is one complete (non-streamed) generation result.
type Response struct {
	Message    message.Message
	Usage      message.Usage
	StopReason string
}

// StreamChunk is one incremental piece of a streamed generation, mirroring
// the teacher's OpenAIParser.Input output (generators/open_ai_parser.go)
// generalized away from the OpenAI delta shape.
type StreamChunk struct {
	Delta      message.Part
	Usage      *message.Usage
	StopReason string
	Done       bool
}

// Provider is the interface every model backend implements.
type Provider interface {
	// Generate performs one non-streaming completion.
	Generate(ctx context.Context, req Request) (Response, error)

	// GenerateStream performs one streaming completion, sending chunks on
	// the returned channel until it closes. The channel is closed as soon
	// as the context is cancelled or the stream completes; the returned
	// error covers only starting the request.
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error)

	// CountTokens estimates the token length of text under this provider's
	// model, grounded on generators.Generator.CountTokens.
	CountTokens(text string) (int, error)

	// GetCost returns the running CostRecord for calls made through this
	// Provider instance.
	GetCost() *message.CostRecord
}
