package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var analysisColumns = []string{"id", "user_id", "agent_id", "status", "raw_text", "result", "created_at"}

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepo(db)
	analysis := Analysis{
		ID:        "analysis-1",
		UserID:    "user-1",
		AgentID:   "comparison",
		Status:    StatusCompleted,
		RawText:   "Viabilidade: 8/10 para a ideia A",
		Result:    json.RawMessage(`{"kind":"comparison"}`),
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			analysis.ID,
			analysis.UserID,
			analysis.AgentID,
			analysis.Status,
			analysis.RawText,
			sqlmock.AnyArg(), // result
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, user_id, agent_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(analysisColumns))

	_, err = NewPGRepo(db).GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	newer := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("user-1", 10, 0).
		WillReturnRows(sqlmock.NewRows(analysisColumns).
			AddRow("a2", "user-1", "ideation", StatusCompleted, "raw", []byte(`{"kind":"ideation"}`), newer).
			AddRow("a1", "user-1", "patterns", StatusCompleted, "raw", nil, older))

	got, err := NewPGRepo(db).ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a2" || got[1].ID != "a1" {
		t.Fatalf("unexpected analyses %+v", got)
	}
	if string(got[0].Result) != `{"kind":"ideation"}` || got[1].Result != nil {
		t.Fatalf("unexpected results %q %q", got[0].Result, got[1].Result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
