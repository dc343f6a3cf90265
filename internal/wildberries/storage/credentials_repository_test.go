package storage

import (
	"context"
	"database/sql"
	"testing"
)

func newCredentialsFixture(t *testing.T) (*sql.DB, *CredentialRepository) {
	t.Helper()
	db := openTestDB(t)
	if _, err := db.Exec(`CREATE TABLE "APIKeys" (key_id INTEGER PRIMARY KEY, user_id TEXT, api_key TEXT, runs INTEGER DEFAULT 0)`); err != nil {
		t.Fatalf("creating APIKeys: %v", err)
	}
	repo := NewCredentialRepository(db, "")
	repo.placeholder = func(int) string { return "?" }
	return db, repo
}

func TestCredentialRepositoryList(t *testing.T) {
	db, repo := newCredentialsFixture(t)
	if _, err := db.Exec(`INSERT INTO "APIKeys" (user_id, api_key, runs) VALUES
		('7b2c9a4e-1f3d-4c5b-8a6e-0d9f2e1b3c4d', 'key-a', 0),
		('3f1e8d7c-6b5a-4e3d-9c2b-1a0f9e8d7c6b', 'key-b', 47)`); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	creds, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("got %d credentials, want 2", len(creds))
	}
	if !creds[0].FirstUse() {
		t.Error("runs=0 credential must report first use")
	}
	if creds[1].FirstUse() || creds[1].Runs != 47 {
		t.Errorf("second credential = %+v", creds[1])
	}
}

func TestCredentialRepositoryRejectsMalformedUserID(t *testing.T) {
	db, repo := newCredentialsFixture(t)
	if _, err := db.Exec(`INSERT INTO "APIKeys" (user_id, api_key, runs) VALUES ('not-a-uuid', 'key-a', 0)`); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatal("a non-UUID user_id must fail the listing")
	}
}

func TestCredentialRepositoryIncrementRuns(t *testing.T) {
	db, repo := newCredentialsFixture(t)
	if _, err := db.Exec(`INSERT INTO "APIKeys" (user_id, api_key, runs) VALUES ('7b2c9a4e-1f3d-4c5b-8a6e-0d9f2e1b3c4d', 'key-a', 47)`); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	if err := repo.IncrementRuns(context.Background(), "7b2c9a4e-1f3d-4c5b-8a6e-0d9f2e1b3c4d"); err != nil {
		t.Fatalf("IncrementRuns: %v", err)
	}

	var runs int
	if err := db.QueryRow(`SELECT runs FROM "APIKeys"`).Scan(&runs); err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if runs != 48 {
		t.Errorf("runs = %d, want 48", runs)
	}
}
