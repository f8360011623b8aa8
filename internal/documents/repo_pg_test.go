package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func docRows(doc Document) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "owner_id", "file_name", "uploaded_name", "storage_key", "mime_type", "size_bytes",
		"status", "extracted_text", "classification", "confidence_score", "structured_data",
		"sentiment", "route_destination", "logs", "comparison_results", "created_at", "updated_at",
	}).AddRow(
		doc.ID, doc.OwnerID, doc.FileName, doc.UploadedName, doc.StorageKey, doc.MimeType, doc.SizeBytes,
		string(doc.Status), doc.ExtractedText, doc.Classification, doc.ConfidenceScore, []byte(`{}`),
		doc.Sentiment, doc.RouteDestination, []byte(`[]`), []byte(`[]`), doc.CreatedAt, doc.UpdatedAt,
	)
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateLocksRowAndWritesBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	doc := Document{
		ID:           "doc-1",
		OwnerID:      "user-1",
		FileName:     "invoice.txt",
		UploadedName: "invoice.txt",
		StorageKey:   "user-1/invoice.txt",
		MimeType:     "text/plain",
		SizeBytes:    11,
		Status:       StatusIngested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").
		WithArgs("doc-1").
		WillReturnRows(docRows(doc))
	mock.ExpectQuery("UPDATE documents").
		WithArgs(
			"doc-1",
			doc.FileName,
			string(StatusExtractionPending),
			doc.ExtractedText,
			sqlmock.AnyArg(), // classification
			doc.ConfidenceScore,
			sqlmock.AnyArg(), // structured_data
			sqlmock.AnyArg(), // sentiment
			sqlmock.AnyArg(), // route_destination
			sqlmock.AnyArg(), // logs
			sqlmock.AnyArg(), // comparison_results
		).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	got, err := repo.Update(context.Background(), "doc-1", func(d *Document) error {
		d.Status = StatusExtractionPending
		d.AppendLog("Starting text extraction.")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != StatusExtractionPending {
		t.Fatalf("status = %s", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateNotFoundRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FOR UPDATE").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := &PGRepo{DB: db}
	if _, err := repo.Update(context.Background(), "missing", func(d *Document) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("DELETE FROM documents").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.Delete(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
