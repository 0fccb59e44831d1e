package db

import (
	"context"
	"testing"

	"github.com/hpungsan/pulse/internal/corpus"
	"github.com/hpungsan/pulse/internal/errors"
)

func TestSeedTopics_Idempotent(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	topics := []corpus.Topic{
		{Name: "sleep", Description: "Sleep science", Keywords: []string{"sleep", "melatonin"}},
		{Name: "focus", Description: "Attention", Keywords: []string{"focus"}},
	}
	if err := SeedTopics(ctx, database, topics); err != nil {
		t.Fatalf("SeedTopics() error = %v", err)
	}

	// Re-seeding with an updated description must not duplicate rows
	topics[0].Description = "Sleep science v2"
	if err := SeedTopics(ctx, database, topics); err != nil {
		t.Fatalf("second SeedTopics() error = %v", err)
	}

	listed, err := ListTopics(ctx, database)
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("got %d topics, want 2", len(listed))
	}

	// Ordered by name ascending
	if listed[0].Name != "focus" || listed[1].Name != "sleep" {
		t.Errorf("order = [%s, %s], want [focus, sleep]", listed[0].Name, listed[1].Name)
	}
	if listed[1].Description != "Sleep science v2" {
		t.Errorf("description = %q, want updated value", listed[1].Description)
	}
	if len(listed[1].Keywords) != 2 {
		t.Errorf("keywords = %v, want 2 entries round-tripped", listed[1].Keywords)
	}
}

func TestGetTopic(t *testing.T) {
	database := initTestDB(t)
	ctx := context.Background()

	if err := SeedTopics(ctx, database, []corpus.Topic{
		{Name: "stress", Description: "Stress tools", Keywords: []string{"cortisol"}},
	}); err != nil {
		t.Fatalf("SeedTopics() error = %v", err)
	}

	topic, err := GetTopic(ctx, database, "stress")
	if err != nil {
		t.Fatalf("GetTopic() error = %v", err)
	}
	if topic.Description != "Stress tools" {
		t.Errorf("Description = %q", topic.Description)
	}

	if _, err := GetTopic(ctx, database, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetTopic(missing) error = %v, want NOT_FOUND", err)
	}
}
