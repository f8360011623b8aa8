package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"docflow-backend/internal/ai"
	"docflow-backend/internal/events"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Save(ctx context.Context, ownerID, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := ownerID + "/" + fileName
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return key, int64(len(data)), "text/plain", nil
}

func (s *fakeStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[storageKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Delete(ctx context.Context, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	s.deleted = append(s.deleted, storageKey)
	return nil
}

type fakePipeline struct {
	extractions     []string
	classifications []string
	comparisons     [][]string
	clears          []string
}

func (p *fakePipeline) StartExtraction(id string)     { p.extractions = append(p.extractions, id) }
func (p *fakePipeline) StartClassification(id string) { p.classifications = append(p.classifications, id) }
func (p *fakePipeline) Compare(sourceID string, targetIDs []string) {
	p.comparisons = append(p.comparisons, append([]string{sourceID}, targetIDs...))
}
func (p *fakePipeline) ClearComparisons(id string) { p.clears = append(p.clears, id) }

type fakeSummarizer struct {
	lastText string
}

func (s *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	s.lastText = text
	return "a summary", nil
}

type fakeAnswerer struct {
	lastText     string
	lastQuestion string
}

func (a *fakeAnswerer) Answer(ctx context.Context, text, question string) (string, error) {
	a.lastText = text
	a.lastQuestion = question
	return "an answer", nil
}

type svcFixture struct {
	svc        *Service
	repo       *MemoryRepo
	store      *fakeStore
	pipe       *fakePipeline
	hub        *events.Hub
	summarizer *fakeSummarizer
	answerer   *fakeAnswerer
}

func newSvcFixture() *svcFixture {
	f := &svcFixture{
		repo:       NewMemoryRepo(),
		store:      newFakeStore(),
		pipe:       &fakePipeline{},
		hub:        events.NewHub(),
		summarizer: &fakeSummarizer{},
		answerer:   &fakeAnswerer{},
	}
	f.svc = &Service{
		Store:      f.store,
		Repo:       f.repo,
		Hub:        f.hub,
		Pipe:       f.pipe,
		Summarizer: f.summarizer,
		Answerer:   f.answerer,
	}
	return f
}

func TestUploadCreatesIngestedAndStartsChain(t *testing.T) {
	f := newSvcFixture()
	sub := f.hub.Subscribe()

	doc, err := f.svc.Upload(context.Background(), "user-1", "invoice.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Status != StatusIngested {
		t.Fatalf("status = %s, want Ingested", doc.Status)
	}
	if doc.UploadedName != "invoice.txt" || doc.FileName != "invoice.txt" {
		t.Fatalf("names = %q/%q", doc.UploadedName, doc.FileName)
	}
	if len(doc.Logs) != 1 || !strings.Contains(doc.Logs[0].Message, "user-1") {
		t.Fatalf("logs = %+v", doc.Logs)
	}
	if len(f.pipe.extractions) != 1 || f.pipe.extractions[0] != doc.ID {
		t.Fatalf("extractions = %v", f.pipe.extractions)
	}

	f.hub.Unsubscribe(sub)
	ev, ok := <-sub.C
	if !ok || ev.Name != events.EventDocumentUpdated || ev.DocumentID != doc.ID {
		t.Fatalf("event = %+v ok=%v", ev, ok)
	}
}

func TestUploadRejectsEmptyFileName(t *testing.T) {
	f := newSvcFixture()
	if _, err := f.svc.Upload(context.Background(), "user-1", "  ", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	f := newSvcFixture()
	doc, err := f.svc.Upload(context.Background(), "user-1", "doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, err := f.svc.Get(context.Background(), "user-2", doc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Get(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Get(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestDeleteRemovesRecordAndObject(t *testing.T) {
	f := newSvcFixture()
	doc, err := f.svc.Upload(context.Background(), "user-1", "doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	sub := f.hub.Subscribe()
	if err := f.svc.Delete(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	f.hub.Unsubscribe(sub)

	if _, err := f.repo.Get(context.Background(), doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record still present: %v", err)
	}
	if len(f.store.deleted) != 1 || f.store.deleted[0] != doc.StorageKey {
		t.Fatalf("deleted objects = %v", f.store.deleted)
	}
	ev, ok := <-sub.C
	if !ok || ev.Name != events.EventDocumentDeleted || ev.DocumentID != doc.ID {
		t.Fatalf("event = %+v ok=%v", ev, ok)
	}
}

func TestReExtractAndReClassifySchedule(t *testing.T) {
	f := newSvcFixture()
	doc, err := f.svc.Upload(context.Background(), "user-1", "doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := f.svc.ReExtract(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("ReExtract: %v", err)
	}
	if err := f.svc.ReClassify(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("ReClassify: %v", err)
	}
	if len(f.pipe.extractions) != 2 { // upload + re-extract
		t.Fatalf("extractions = %v", f.pipe.extractions)
	}
	if len(f.pipe.classifications) != 1 {
		t.Fatalf("classifications = %v", f.pipe.classifications)
	}

	if err := f.svc.ReExtract(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := f.svc.ReClassify(context.Background(), "user-2", doc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestCompareScheduling(t *testing.T) {
	f := newSvcFixture()
	doc, err := f.svc.Upload(context.Background(), "user-1", "doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if err := f.svc.Compare(context.Background(), "user-1", "missing", []string{"t1"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// Nothing extracted yet, so nothing to compare against.
	if err := f.svc.Compare(context.Background(), "user-1", doc.ID, []string{"t1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, err := f.repo.Update(context.Background(), doc.ID, func(d *Document) error {
		d.ExtractedText = "source text"
		return nil
	}); err != nil {
		t.Fatalf("seed text: %v", err)
	}

	// An empty target list is still a valid run.
	if err := f.svc.Compare(context.Background(), "user-1", doc.ID, nil); err != nil {
		t.Fatalf("Compare with no targets: %v", err)
	}
	if err := f.svc.Compare(context.Background(), "user-1", doc.ID, []string{"t1", "t2"}); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(f.pipe.comparisons) != 2 || f.pipe.comparisons[1][0] != doc.ID {
		t.Fatalf("comparisons = %v", f.pipe.comparisons)
	}

	if err := f.svc.ClearComparisons(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatalf("ClearComparisons: %v", err)
	}
	if len(f.pipe.clears) != 1 {
		t.Fatalf("clears = %v", f.pipe.clears)
	}
}

func TestSummarizeTruncatesInput(t *testing.T) {
	f := newSvcFixture()
	doc, err := f.svc.Upload(context.Background(), "user-1", "doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, err := f.svc.Summarize(context.Background(), "user-1", doc.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for empty text", err)
	}

	long := strings.Repeat("a", ai.MaxSummaryChars+500)
	if _, err := f.repo.Update(context.Background(), doc.ID, func(d *Document) error {
		d.ExtractedText = long
		return nil
	}); err != nil {
		t.Fatalf("seed text: %v", err)
	}

	summary, err := f.svc.Summarize(context.Background(), "user-1", doc.ID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "a summary" {
		t.Fatalf("summary = %q", summary)
	}
	if len(f.summarizer.lastText) != ai.MaxSummaryChars {
		t.Fatalf("provider input length = %d, want %d", len(f.summarizer.lastText), ai.MaxSummaryChars)
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	f := newSvcFixture()
	doc, err := f.svc.Upload(context.Background(), "user-1", "doc.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := f.repo.Update(context.Background(), doc.ID, func(d *Document) error {
		d.ExtractedText = "contract text"
		return nil
	}); err != nil {
		t.Fatalf("seed text: %v", err)
	}

	if _, err := f.svc.Answer(context.Background(), "user-1", doc.ID, " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}

	answer, err := f.svc.Answer(context.Background(), "user-1", doc.ID, "who signed?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if answer != "an answer" || f.answerer.lastQuestion != "who signed?" {
		t.Fatalf("answer = %q question = %q", answer, f.answerer.lastQuestion)
	}
}
