package migrations

import (
	"strings"
	"testing"
)

func TestEmbeddedMigrationsCarryGooseDirectives(t *testing.T) {
	entries, err := FS.ReadDir(".")
	if err != nil {
		t.Fatalf("read embedded fs: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected embedded migrations")
	}
	for _, entry := range entries {
		content, err := FS.ReadFile(entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		text := string(content)
		if !strings.Contains(text, "-- +goose Up") || !strings.Contains(text, "-- +goose Down") {
			t.Fatalf("%s is missing goose directives", entry.Name())
		}
	}
}

func TestInitialSchemaCreatesCoreTables(t *testing.T) {
	content, err := FS.ReadFile("00001_init.sql")
	if err != nil {
		t.Fatalf("read initial schema: %v", err)
	}
	for _, table := range []string{"organizations", "users", "goals", "goal_freeze_logs", "initiatives", "review_scores", "notifications", "job_runs"} {
		if !strings.Contains(string(content), "CREATE TABLE "+table+" ") {
			t.Fatalf("initial schema missing table %s", table)
		}
	}
}
