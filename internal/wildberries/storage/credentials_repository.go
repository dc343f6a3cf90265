package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Credential is one vendor API key together with the opaque owner id that
// scopes everything written on its behalf and the completed-cycle counter
// that drives cadence decisions.
type Credential struct {
	KeyID  int64
	UserID string
	APIKey string
	Runs   int
}

// FirstUse reports whether this credential has never completed a cycle and
// should use the maximal historical lookback windows.
func (c Credential) FirstUse() bool {
	return c.Runs == 0
}

const credentialsTable = "APIKeys"

// CredentialRepository reads and maintains the APIKeys table. Keys are
// created and rotated by an external management surface; this side only
// lists them and advances the run counter.
type CredentialRepository struct {
	db         *sql.DB
	schemaName string

	placeholder func(n int) string
}

func NewCredentialRepository(db *sql.DB, schemaName string) *CredentialRepository {
	return &CredentialRepository{db: db, schemaName: schemaName, placeholder: pgPlaceholder}
}

func (r *CredentialRepository) target() string {
	if r.schemaName == "" {
		return quoteIdent(credentialsTable)
	}
	return r.schemaName + "." + quoteIdent(credentialsTable)
}

// List returns every stored credential. A user_id that is not a UUID means
// the store is corrupt; that is fatal for the whole run, not something a
// sync cycle can skip over.
func (r *CredentialRepository) List(ctx context.Context) ([]Credential, error) {
	query := fmt.Sprintf(`SELECT key_id, user_id, api_key, runs FROM %s`, r.target())

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		var cred Credential
		if err := rows.Scan(&cred.KeyID, &cred.UserID, &cred.APIKey, &cred.Runs); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if _, err := uuid.Parse(cred.UserID); err != nil {
			return nil, fmt.Errorf("malformed credential %d: user_id %q is not a UUID: %w", cred.KeyID, cred.UserID, err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	return creds, nil
}

// IncrementRuns advances the completed-cycle counter. It is called once per
// cycle regardless of per-operation outcomes: cadence gating counts elapsed
// cycles, not successful ones.
func (r *CredentialRepository) IncrementRuns(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`UPDATE %s SET runs = runs + 1 WHERE user_id = %s`, r.target(), r.placeholder(1))

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("incrementing runs for %s: %w", userID, err)
	}
	return nil
}
