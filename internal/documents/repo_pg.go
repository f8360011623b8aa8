package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const docColumns = `id, owner_id, file_name, uploaded_name, storage_key, mime_type, size_bytes, status, extracted_text, classification, confidence_score, structured_data, sentiment, route_destination, logs, comparison_results, created_at, updated_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (` + docColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	structured, logs, comparisons, err := marshalJSONFields(doc)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.OwnerID,
		doc.FileName,
		doc.UploadedName,
		doc.StorageKey,
		doc.MimeType,
		doc.SizeBytes,
		string(doc.Status),
		doc.ExtractedText,
		nullString(doc.Classification),
		doc.ConfidenceScore,
		structured,
		nullString(doc.Sentiment),
		nullString(doc.RouteDestination),
		logs,
		comparisons,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Get returns a document by id.
func (r *PGRepo) Get(ctx context.Context, id string) (Document, error) {
	const query = `
SELECT ` + docColumns + `
FROM documents
WHERE id = $1
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Update applies mutate inside a transaction holding a row lock, so a
// stage's read-modify-write cannot race another writer for the same id.
func (r *PGRepo) Update(ctx context.Context, id string, mutate func(*Document) error) (Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, err
	}
	defer tx.Rollback()

	const selectQuery = `
SELECT ` + docColumns + `
FROM documents
WHERE id = $1
FOR UPDATE`
	doc, err := scanDocument(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}

	if err := mutate(&doc); err != nil {
		return Document{}, err
	}

	structured, logs, comparisons, err := marshalJSONFields(doc)
	if err != nil {
		return Document{}, err
	}

	const updateQuery = `
UPDATE documents
SET file_name = $2,
    status = $3,
    extracted_text = $4,
    classification = $5,
    confidence_score = $6,
    structured_data = $7,
    sentiment = $8,
    route_destination = $9,
    logs = $10,
    comparison_results = $11,
    updated_at = NOW()
WHERE id = $1
RETURNING updated_at`
	if err := tx.QueryRowContext(
		ctx,
		updateQuery,
		id,
		doc.FileName,
		string(doc.Status),
		doc.ExtractedText,
		nullString(doc.Classification),
		doc.ConfidenceScore,
		structured,
		nullString(doc.Sentiment),
		nullString(doc.RouteDestination),
		logs,
		comparisons,
	).Scan(&doc.UpdatedAt); err != nil {
		return Document{}, err
	}

	if err := tx.Commit(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByOwner lists an owner's documents honoring the filter.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, filter ListFilter) ([]Document, error) {
	var (
		where = []string{"owner_id = $1"}
		args  = []any{ownerID}
	)
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("file_name ILIKE $%d", len(args)))
	}
	if filter.Classification != "" {
		args = append(args, filter.Classification)
		where = append(where, fmt.Sprintf("classification = $%d", len(args)))
	}
	if filter.NeedsReview {
		where = append(where, "(classification = 'Unclassified' OR confidence_score < 60)")
		where = append(where, "status IN ('Classified', 'Data_Extraction_Pending', 'Data_Extracted', 'Sentiment_Pending', 'Analyzed', 'Renaming_Pending', 'Renamed', 'Routing_Pending', 'Routed', 'Failed')")
	}
	if filter.ProcessedToday {
		where = append(where, "updated_at::date = CURRENT_DATE")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := `
SELECT ` + docColumns + `
FROM documents
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY ` + orderClause(filter.SortBy, filter.SortOrder) + `
LIMIT $` + fmt.Sprint(len(args)-1) + ` OFFSET $` + fmt.Sprint(len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// orderClause whitelists sortable columns so filter values never reach
// the SQL text directly.
func orderClause(sortBy, sortOrder string) string {
	col := "created_at"
	switch sortBy {
	case "updated_at", "file_name", "confidence_score":
		col = sortBy
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc            Document
		status         string
		extracted      sql.NullString
		classification sql.NullString
		sentiment      sql.NullString
		destination    sql.NullString
		structured     []byte
		logs           []byte
		comparisons    []byte
	)
	if err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.FileName,
		&doc.UploadedName,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.SizeBytes,
		&status,
		&extracted,
		&classification,
		&doc.ConfidenceScore,
		&structured,
		&sentiment,
		&destination,
		&logs,
		&comparisons,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.Status = Status(status)
	if extracted.Valid {
		doc.ExtractedText = extracted.String
	}
	if classification.Valid {
		doc.Classification = classification.String
	}
	if sentiment.Valid {
		doc.Sentiment = sentiment.String
	}
	if destination.Valid {
		doc.RouteDestination = destination.String
	}
	if len(structured) > 0 {
		if err := json.Unmarshal(structured, &doc.StructuredData); err != nil {
			return Document{}, fmt.Errorf("decode structured_data: %w", err)
		}
	}
	if len(logs) > 0 {
		if err := json.Unmarshal(logs, &doc.Logs); err != nil {
			return Document{}, fmt.Errorf("decode logs: %w", err)
		}
	}
	if len(comparisons) > 0 {
		if err := json.Unmarshal(comparisons, &doc.ComparisonResults); err != nil {
			return Document{}, fmt.Errorf("decode comparison_results: %w", err)
		}
	}
	return doc, nil
}

func marshalJSONFields(doc Document) (structured, logs, comparisons []byte, err error) {
	if structured, err = json.Marshal(orEmptyMap(doc.StructuredData)); err != nil {
		return nil, nil, nil, err
	}
	if doc.Logs == nil {
		doc.Logs = []LogEntry{}
	}
	if logs, err = json.Marshal(doc.Logs); err != nil {
		return nil, nil, nil, err
	}
	if doc.ComparisonResults == nil {
		doc.ComparisonResults = []ComparisonResult{}
	}
	if comparisons, err = json.Marshal(doc.ComparisonResults); err != nil {
		return nil, nil, nil, err
	}
	return structured, logs, comparisons, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
