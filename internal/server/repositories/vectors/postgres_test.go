package vectors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestUpsert_OneStatementPerRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+media_vectors\b.*ON\s+CONFLICT\s*\(id\)\s*DO\s+UPDATE\s+SET\b`

	mock.ExpectExec(q).
		WithArgs("1", []byte(`[0.5,0.25]`), []byte(`{"title":"a"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).
		WithArgs("2", []byte(`[1,0]`), []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), []Row{
		{ID: "1", Vector: []float32{0.5, 0.25}, Metadata: map[string]string{"title": "a"}},
		{ID: "2", Vector: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSelectAll_DecodesVectors(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+id,\s*vector,\s*metadata\s+FROM\s+media_vectors$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "vector", "metadata"}).
			AddRow("7", []byte(`[0.1,0.2,0.3]`), []byte(`{"title":"song"}`)))

	rows, err := repo.SelectAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 row, got %d", len(rows))
	}
	if rows[0].ID != "7" || len(rows[0].Vector) != 3 || rows[0].Metadata["title"] != "song" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}
