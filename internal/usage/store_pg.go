package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

const pgInsertAttempts = 3

var errConcurrentInsert = errors.New("usage record inserted concurrently")

// PGStore keeps usage records in Postgres. Update locks the user's row with
// SELECT ... FOR UPDATE for the duration of the mutator.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, userID string) (Record, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT tier_id, period_start, period_end, usage_counts, updated_at
FROM usage_records WHERE user_id = $1`, userID)
	rec, err := scanRecord(row, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

func (s *PGStore) Update(ctx context.Context, userID string, fn Mutator) (Record, error) {
	for attempt := 1; ; attempt++ {
		rec, err := s.updateOnce(ctx, userID, fn)
		if errors.Is(err, errConcurrentInsert) && attempt < pgInsertAttempts {
			continue
		}
		return rec, err
	}
}

func (s *PGStore) updateOnce(ctx context.Context, userID string, fn Mutator) (rec Record, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, `
SELECT tier_id, period_start, period_end, usage_counts, updated_at
FROM usage_records WHERE user_id = $1 FOR UPDATE`, userID)
	rec, err = scanRecord(row, userID)
	exists := true
	if errors.Is(err, sql.ErrNoRows) {
		rec, exists, err = Record{}, false, nil
	}
	if err != nil {
		return Record{}, err
	}

	write, err := fn(&rec, exists)
	if err != nil {
		return Record{}, err
	}
	rec.UserID = userID
	if !write {
		if err = tx.Commit(); err != nil {
			return Record{}, err
		}
		return rec, nil
	}

	counts, err := json.Marshal(rec.Counts)
	if err != nil {
		return Record{}, fmt.Errorf("encode usage counts: %w", err)
	}

	if exists {
		_, err = tx.ExecContext(ctx, `
UPDATE usage_records
SET tier_id = $2, period_start = $3, period_end = $4, usage_counts = $5, updated_at = $6
WHERE user_id = $1`, userID, rec.TierID, rec.PeriodStart, rec.PeriodEnd, counts, rec.UpdatedAt)
		if err != nil {
			return Record{}, err
		}
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `
INSERT INTO usage_records (user_id, tier_id, period_start, period_end, usage_counts, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO NOTHING`, userID, rec.TierID, rec.PeriodStart, rec.PeriodEnd, counts, rec.UpdatedAt)
		if err != nil {
			return Record{}, err
		}
		var n int64
		if n, err = res.RowsAffected(); err != nil {
			return Record{}, err
		}
		if n == 0 {
			err = errConcurrentInsert
			return Record{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, userID string) (Record, error) {
	var (
		rec    Record
		counts []byte
	)
	if err := row.Scan(&rec.TierID, &rec.PeriodStart, &rec.PeriodEnd, &counts, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	rec.UserID = userID
	rec.Counts = map[string]int{}
	if len(counts) > 0 {
		if err := json.Unmarshal(counts, &rec.Counts); err != nil {
			return Record{}, fmt.Errorf("decode usage counts: %w", err)
		}
	}
	rec.PeriodStart = rec.PeriodStart.UTC()
	rec.PeriodEnd = rec.PeriodEnd.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
