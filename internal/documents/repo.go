package documents

import "context"

// ListFilter narrows and orders a document listing.
type ListFilter struct {
	Search         string // matches file name, case-insensitive
	Classification string
	NeedsReview    bool // unclassified or low-confidence documents
	ProcessedToday bool
	SortBy         string // created_at, updated_at, file_name, confidence_score
	SortOrder      string // asc or desc
	Limit          int
	Offset         int
}

// Repo defines persistence operations for documents. Update applies
// mutate under the store's per-record write lock so concurrent stage
// writes for the same id cannot lose updates.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	Get(ctx context.Context, id string) (Document, error)
	Update(ctx context.Context, id string, mutate func(*Document) error) (Document, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, filter ListFilter) ([]Document, error)
}
