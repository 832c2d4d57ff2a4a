package memory

import (
	"context"
	"testing"
	"time"
)

func TestUpdateWorkingAndRead(t *testing.T) {
	m := NewInProcess(nil)
	if err := m.UpdateWorking(context.Background(), "k", 42); err != nil {
		t.Fatal(err)
	}
	v, ok := m.Working("k")
	if !ok || v != 42 {
		t.Fatalf("got %v %v", v, ok)
	}
}

func TestAppendEpisodicRequiresTimestamp(t *testing.T) {
	m := NewInProcess(nil)
	if err := m.AppendEpisodic(context.Background(), EpisodicRecord{Key: "a", Value: "b"}); err == nil {
		t.Fatal("expected error for missing timestamp")
	}
}

func TestAppendEpisodicIsOrderedAndAppendOnly(t *testing.T) {
	m := NewInProcess(nil)
	now := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		err := m.AppendEpisodic(context.Background(), EpisodicRecord{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Key:       "step",
			Value:     "record",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(m.Episodic()) != 3 {
		t.Fatalf("got %d records", len(m.Episodic()))
	}
}

func TestRetrieveRelevantNaiveSubstringMatch(t *testing.T) {
	m := NewInProcess(nil)
	now := time.Unix(1000, 0)
	m.AppendEpisodic(context.Background(), EpisodicRecord{Timestamp: now, Value: "the quick brown fox"})
	m.AppendEpisodic(context.Background(), EpisodicRecord{Timestamp: now, Value: "a lazy dog sleeps"})

	results, err := m.RetrieveRelevant(context.Background(), "fox", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Value != "the quick brown fox" {
		t.Fatalf("got %+v", results)
	}
}

func TestUpdateSemanticDoesNotMutateOnRead(t *testing.T) {
	m := NewInProcess(nil)
	if err := m.UpdateSemantic(context.Background(), "fact", "the sky is blue"); err != nil {
		t.Fatal(err)
	}
	before := len(m.Episodic())
	if _, err := m.RetrieveRelevant(context.Background(), "sky", 5); err != nil {
		t.Fatal(err)
	}
	if len(m.Episodic()) != before {
		t.Fatal("expected RetrieveRelevant to be side-effect free")
	}
}
