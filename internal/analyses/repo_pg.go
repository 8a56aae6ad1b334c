package analyses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a Postgres-backed analysis repo.
func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (id, user_id, agent_id, status, raw_text, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.UserID,
		analysis.AgentID,
		analysis.Status,
		analysis.RawText,
		nullableJSON(analysis.Result),
		analysis.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", analysis.ID, err)
	}
	return nil
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT id, user_id, agent_id, status, raw_text, result, created_at
FROM analyses
WHERE id = $1
LIMIT 1`
	a, err := scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	return a, err
}

// ListByUser returns a user's analyses, newest first. A zero limit returns
// everything after offset.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if offset < 0 {
		offset = 0
	}
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	const query = `
SELECT id, user_id, agent_id, status, raw_text, result, created_at
FROM analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limitArg, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var (
		a      Analysis
		result []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.AgentID, &a.Status, &a.RawText, &result, &a.CreatedAt); err != nil {
		return Analysis{}, err
	}
	if len(result) > 0 {
		a.Result = append([]byte(nil), result...)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
