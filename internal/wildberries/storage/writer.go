package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"wbsync/internal/wildberries/business/models"
	"wbsync/pkg/business/service"
	"wbsync/pkg/logger"
)

const (
	// maxChunkRows was chosen against remote-store write behavior, not a
	// protocol limit: very large single statements get flaky long before
	// the driver refuses them.
	maxChunkRows = 5000
	// maxBindParams stays under Postgres's 65535 bind-parameter cap.
	maxBindParams = 65000
)

// Writer persists record batches for exactly one credential. A Writer is
// owned by one sync worker for one cycle; the *sql.DB underneath is shared
// and serializes writes through its own transaction discipline.
type Writer struct {
	db         *sql.DB
	schemaName string
	userID     string
	text       service.ITextService
	log        logger.Logger

	chunkRows   int
	placeholder func(n int) string
}

func pgPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func NewWriter(db *sql.DB, schemaName, userID string, log logger.Logger) *Writer {
	return &Writer{
		db:          db,
		schemaName:  schemaName,
		userID:      userID,
		text:        service.NewTextService(),
		log:         log,
		chunkRows:   maxChunkRows,
		placeholder: pgPlaceholder,
	}
}

// Upsert writes a batch into one target table: unknown record keys are
// dropped, the owner id is attached, rows are deduplicated by the natural
// key (last occurrence wins, matching replace semantics), and everything is
// written in one transaction, chunked to keep single statements bounded.
// Conflicts on the (natural key, owner) constraint replace the stored row
// in full. An empty batch is a no-op.
func (w *Writer) Upsert(ctx context.Context, ts TableSchema, records []models.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	columns := append(append([]string{}, ts.Columns...), OwnerColumn)
	rows, err := w.prepareRows(ts, records)
	if err != nil {
		return 0, err
	}

	chunk := w.chunkRows
	if cap := maxBindParams / len(columns); cap < chunk {
		chunk = cap
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback()

	written := 0
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := w.execChunk(ctx, tx, ts, columns, rows[start:end]); err != nil {
			return 0, fmt.Errorf("upserting into %s: %w", ts.Name, err)
		}
		written += end - start
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert into %s: %w", ts.Name, err)
	}
	return written, nil
}

// prepareRows filters each record down to the schema's columns, attaches the
// owner and drops earlier duplicates of the same natural key. A single
// statement may not touch one unique key twice, and replace semantics mean
// the freshest row wins anyway.
func (w *Writer) prepareRows(ts TableSchema, records []models.Record) ([][]interface{}, error) {
	keyIdx := make([]int, 0, len(ts.UniqueKey))
	for _, key := range ts.UniqueKey {
		for i, col := range ts.Columns {
			if col == key {
				keyIdx = append(keyIdx, i)
			}
		}
	}

	rows := make([][]interface{}, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		row := make([]interface{}, 0, len(ts.Columns)+1)
		for _, col := range ts.Columns {
			value, ok := rec[col]
			if !ok {
				row = append(row, nil)
				continue
			}
			normalized, err := w.normalizeValue(value)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			row = append(row, normalized)
		}
		row = append(row, w.userID)

		var sb strings.Builder
		for _, i := range keyIdx {
			fmt.Fprintf(&sb, "%v\x1f", row[i])
		}
		key := sb.String()
		if prev, ok := seen[key]; ok && len(keyIdx) > 0 {
			rows[prev] = row
			continue
		}
		seen[key] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

// normalizeValue maps decoded JSON values onto driver-friendly ones: nested
// structures are stored as JSON text, numbers keep their decimal spelling,
// strings are cleaned of junk runes.
func (w *Writer) normalizeValue(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil, bool:
		return v, nil
	case json.Number:
		return v.String(), nil
	case string:
		return w.text.Clean(v), nil
	case map[string]interface{}, []interface{}, []models.Record:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding nested value: %w", err)
		}
		return string(encoded), nil
	default:
		return v, nil
	}
}

func (w *Writer) execChunk(ctx context.Context, tx *sql.Tx, ts TableSchema, columns []string, rows [][]interface{}) error {
	valueStrings := make([]string, len(rows))
	args := make([]interface{}, 0, len(rows)*len(columns))
	for i, row := range rows {
		placeholders := make([]string, len(columns))
		for j := range columns {
			placeholders[j] = w.placeholder(i*len(columns) + j + 1)
		}
		valueStrings[i] = "(" + strings.Join(placeholders, ", ") + ")"
		args = append(args, row...)
	}

	conflictKey := append(append([]string{}, ts.UniqueKey...), OwnerColumn)
	assignments := make([]string, 0, len(ts.Columns))
	for _, col := range ts.Columns {
		if contains(conflictKey, col) {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", quoteIdent(col), quoteIdent(col)))
	}

	conflictAction := "DO NOTHING"
	if len(assignments) > 0 {
		conflictAction = "DO UPDATE SET " + strings.Join(assignments, ", ")
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) %s",
		ts.qualified(w.schemaName),
		strings.Join(quoteAll(columns), ", "),
		strings.Join(valueStrings, ", "),
		strings.Join(quoteAll(conflictKey), ", "),
		conflictAction,
	)

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
