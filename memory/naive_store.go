package memory

import (
	"context"
	"strings"
)

// naiveSemanticStore is the in-process fallback SemanticStore (spec
// §4.10's "in-process fallback" clause): it searches the owning
// InProcess's episodic log by case-insensitive substring match and returns
// the last k matches in log order. Never mutates on Search.
type naiveSemanticStore struct {
	memory *InProcess
}

func (s *naiveSemanticStore) Put(ctx context.Context, key string, value any) error {
	return nil // semantic values already live in InProcess.semantic; nothing extra to index
}

func (s *naiveSemanticStore) Search(ctx context.Context, query string, k int) ([]EpisodicRecord, error) {
	if k <= 0 {
		k = 5
	}
	q := strings.ToLower(query)
	records := s.memory.Episodic()

	var matches []EpisodicRecord
	for _, r := range records {
		text, ok := r.Value.(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(text), q) {
			matches = append(matches, r)
		}
	}
	if len(matches) > k {
		matches = matches[len(matches)-k:]
	}
	return matches, nil
}
