package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/reusee/minion/message"
	"github.com/reusee/minion/tool"
)

// fileReadTool lets the Agent re-read content a decay pass wrote to disk,
// addressed by the path a decayed message marker exposes (spec §4.9:
// "Tool responses include the file path so the Agent can re-read on
// demand via a file tool"). Registered unconditionally during Setup since
// any tool result, not just a decayed message, may point the model at a
// saved file.
func fileReadTool() tool.Descriptor {
	return tool.Descriptor{
		ToolDescriptor: message.ToolDescriptor{
			Name:        "file_read",
			Description: "Read the full content of a file, e.g. one referenced by a decayed message marker or a tool result.",
			Inputs: map[string]message.ToolSchema{
				"path": {Name: "path", Type: "string", Description: "Path to read."},
			},
			OutputType: "object",
		},
		Call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			path, _ := args["path"].(string)
			if path == "" {
				return nil, fmt.Errorf("file_read: path is required")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			return map[string]any{"content": string(data), "size": len(data)}, nil
		},
	}
}
