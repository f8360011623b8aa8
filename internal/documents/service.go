package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docflow-backend/internal/ai"
	"docflow-backend/internal/events"
	"docflow-backend/internal/shared/storage/object"
	"docflow-backend/internal/shared/telemetry"
)

// Pipeline schedules asynchronous processing for a document. All
// methods return immediately; the work runs on the document's serial
// queue.
type Pipeline interface {
	StartExtraction(id string)
	StartClassification(id string)
	Compare(sourceID string, targetIDs []string)
	ClearComparisons(id string)
}

// Service contains business logic for documents.
type Service struct {
	Store      object.ObjectStore
	Repo       Repo
	Hub        *events.Hub
	Pipe       Pipeline
	Summarizer ai.Summarizer
	Answerer   ai.QuestionAnswerer
}

// Upload saves the file, records the document and kicks off the
// processing chain. It returns as soon as the Ingested record exists.
func (s *Service) Upload(ctx context.Context, ownerID, fileName string, r io.Reader) (Document, error) {
	if strings.TrimSpace(fileName) == "" {
		return Document{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, ownerID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	doc := Document{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		FileName:     fileName,
		UploadedName: fileName,
		StorageKey:   storageKey,
		MimeType:     mimeType,
		SizeBytes:    size,
		Status:       StatusIngested,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	doc.AppendLog(fmt.Sprintf("Document received from user %s.", ownerID))

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	PublishUpdated(s.Hub, doc)
	s.Pipe.StartExtraction(doc.ID)
	return doc, nil
}

// Get returns a document after checking ownership.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Document, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.OwnerID != ownerID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

// List returns the owner's documents honoring the filter.
func (s *Service) List(ctx context.Context, ownerID string, filter ListFilter) ([]Document, error) {
	return s.Repo.ListByOwner(ctx, ownerID, filter)
}

// Delete removes the record, its stored object and announces the
// deletion. Any stage already running for the id finds no record
// afterwards and abandons silently.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Error("documents.delete_object", map[string]any{
			"document_id": id,
			"error":       err.Error(),
		})
	}
	PublishDeleted(s.Hub, id)
	return nil
}

// ReExtract restarts the chain from text extraction.
func (s *Service) ReExtract(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	s.Pipe.StartExtraction(id)
	return nil
}

// ReClassify restarts the chain from classification.
func (s *Service) ReClassify(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	s.Pipe.StartClassification(id)
	return nil
}

// Compare schedules a comparison of the source against the targets. An empty
// target list is a valid run that ends with empty results, but a source with
// no extracted text is rejected before anything is scheduled.
func (s *Service) Compare(ctx context.Context, ownerID, sourceID string, targetIDs []string) error {
	doc, err := s.Get(ctx, ownerID, sourceID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return fmt.Errorf("%w: document has no extracted text", ErrInvalidInput)
	}
	s.Pipe.Compare(sourceID, targetIDs)
	return nil
}

// ClearComparisons schedules emptying the source's comparison results.
func (s *Service) ClearComparisons(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	s.Pipe.ClearComparisons(id)
	return nil
}

// Summarize produces a summary of the document's extracted text.
func (s *Service) Summarize(ctx context.Context, ownerID, id string) (string, error) {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return "", fmt.Errorf("%w: document has no extracted text", ErrInvalidInput)
	}
	return s.Summarizer.Summarize(ctx, ai.Truncate(doc.ExtractedText, ai.MaxSummaryChars))
}

// Answer responds to a question about the document's extracted text.
func (s *Service) Answer(ctx context.Context, ownerID, id, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return "", fmt.Errorf("%w: document has no extracted text", ErrInvalidInput)
	}
	return s.Answerer.Answer(ctx, ai.Truncate(doc.ExtractedText, ai.MaxQuestionChars), question)
}

// Download opens the stored object for streaming back to the owner.
func (s *Service) Download(ctx context.Context, ownerID, id string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return Document{}, nil, err
	}
	body, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, body, nil
}
