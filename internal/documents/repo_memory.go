package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc.Clone()
	return nil
}

// Get returns a document by id.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc.Clone(), nil
}

// Update applies mutate to the stored record under the write lock.
func (r *MemoryRepo) Update(ctx context.Context, id string, mutate func(*Document) error) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	next := doc.Clone()
	if err := mutate(&next); err != nil {
		return Document{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	r.data[id] = next
	return next.Clone(), nil
}

// Delete removes a document.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ListByOwner returns an owner's documents honoring the filter.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, filter ListFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	var docs []Document
	for _, doc := range r.data {
		if doc.OwnerID == ownerID && matchesFilter(doc, filter) {
			docs = append(docs, doc.Clone())
		}
	}
	r.mu.RUnlock()

	sortDocs(docs, filter.SortBy, filter.SortOrder)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return docs[offset:end], nil
}

func matchesFilter(doc Document, filter ListFilter) bool {
	if filter.Search != "" && !strings.Contains(strings.ToLower(doc.FileName), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Classification != "" && doc.Classification != filter.Classification {
		return false
	}
	if filter.NeedsReview && !needsReview(doc) {
		return false
	}
	if filter.ProcessedToday {
		now := time.Now().UTC()
		y1, m1, d1 := doc.UpdatedAt.UTC().Date()
		y2, m2, d2 := now.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}

func needsReview(doc Document) bool {
	if doc.Status.Rank() < StatusClassified.Rank() && doc.Status != StatusFailed {
		return false
	}
	return doc.Classification == "Unclassified" || doc.ConfidenceScore < 60
}

func sortDocs(docs []Document, sortBy, sortOrder string) {
	desc := strings.ToLower(sortOrder) != "asc"
	less := func(a, b Document) bool { return a.CreatedAt.Before(b.CreatedAt) }
	switch sortBy {
	case "updated_at":
		less = func(a, b Document) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "file_name":
		less = func(a, b Document) bool { return strings.ToLower(a.FileName) < strings.ToLower(b.FileName) }
	case "confidence_score":
		less = func(a, b Document) bool { return a.ConfidenceScore < b.ConfidenceScore }
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if desc {
			return less(docs[j], docs[i])
		}
		return less(docs[i], docs[j])
	})
}

var _ Repo = (*MemoryRepo)(nil)
