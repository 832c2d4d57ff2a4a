package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/reusee/minion/message"
)

// decayPass writes out large, non-system message content once it sits
// at least Decay.MaxAgeSteps positions behind the last message,
// replacing it with a short reference — the spec §4.9 context-management
// knob that keeps long-running Agent state from growing unbounded.
// Grounded on the teacher's use of google/uuid for content-addressed file
// naming (storages package), generalized from "cache file" to "decayed
// turn file".
func (a *Agent) decayPass(ctx context.Context) error {
	if a.Decay.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(a.Decay.Dir, 0o755); err != nil {
		return err
	}

	n := len(a.State.Messages)
	for i, m := range a.State.Messages {
		if m.Role == message.RoleSystem {
			continue
		}
		// The last MaxAgeSteps messages are exempt; a message at least that
		// many positions behind the most recent one is eligible for decay
		// once it is also large enough to matter.
		if n-1-i < a.Decay.MaxAgeSteps {
			continue
		}
		text := m.PlainText()
		if len(text) < a.Decay.MaxBytes {
			continue
		}

		name := fmt.Sprintf("decay-step%d-%s.txt", a.State.Steps, uuid.NewString())
		path := filepath.Join(a.Decay.Dir, name)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return err
		}

		size := len(text)
		replaced := message.NewText(m.Role, fmt.Sprintf(
			"[Large output (%s) saved to: %s] Use file_read to access full content if needed.",
			formatSize(size), path,
		))
		replaced.ToolCallID = m.ToolCallID
		replaced.Name = m.Name
		replaced.Decayed = &message.DecayedMarker{
			Decayed:      true,
			FilePath:     path,
			OriginalSize: size,
		}
		a.State.Messages[i] = replaced
	}
	return nil
}

// formatSize renders a byte count the way the spec's "[Large output
// (146KB) saved to: ...]" replacement text illustrates: whole kilobytes
// from 1024 bytes up, plain bytes below that.
func formatSize(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	return fmt.Sprintf("%dKB", n/1024)
}
