// Package pipeline drives documents through the processing lifecycle.
//
// Every stage is a task on the document's serial queue: it reads the
// record, calls at most one capability provider, writes the record
// back and publishes the update, then enqueues the next stage. A stage
// that finds no record abandons silently, so deleting a document mid
// chain is safe. Provider failures move the record to Failed and halt
// the chain; renaming is the one non-fatal exception.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"docflow-backend/internal/ai"
	"docflow-backend/internal/documents"
	"docflow-backend/internal/events"
	"docflow-backend/internal/extract"
	"docflow-backend/internal/notify"
	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/storage/object"
	"docflow-backend/internal/shared/telemetry"
)

// Orchestrator schedules and executes the per-document stage chain.
type Orchestrator struct {
	repo       documents.Repo
	store      object.ObjectStore
	extractor  *extract.Extractor
	providers  ai.Providers
	hub        *events.Hub
	notifier   notify.Notifier
	renamer    Renamer
	dispatcher *Dispatcher
}

// New constructs an Orchestrator.
func New(repo documents.Repo, store object.ObjectStore, extractor *extract.Extractor, providers ai.Providers, hub *events.Hub, notifier notify.Notifier) *Orchestrator {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Orchestrator{
		repo:       repo,
		store:      store,
		extractor:  extractor,
		providers:  providers,
		hub:        hub,
		notifier:   notifier,
		renamer:    TemplateRenamer{},
		dispatcher: NewDispatcher(),
	}
}

// StartExtraction schedules the chain from the extraction stage. Used
// both for fresh uploads and for explicit re-extract triggers.
func (o *Orchestrator) StartExtraction(id string) {
	metrics.IncPipelineStarted()
	o.dispatcher.Enqueue(id, func() { o.runExtraction(id) })
}

// StartClassification schedules the chain from the classification
// stage, keeping the existing extracted text.
func (o *Orchestrator) StartClassification(id string) {
	o.dispatcher.Enqueue(id, func() { o.runClassification(id) })
}

// Compare schedules a comparison run on the source's queue.
func (o *Orchestrator) Compare(sourceID string, targetIDs []string) {
	o.dispatcher.Enqueue(sourceID, func() { o.runComparison(sourceID, targetIDs) })
}

// ClearComparisons schedules emptying the source's comparison results.
func (o *Orchestrator) ClearComparisons(id string) {
	o.dispatcher.Enqueue(id, func() { o.runClearComparisons(id) })
}

// Wait blocks until all scheduled work has finished.
func (o *Orchestrator) Wait() {
	o.dispatcher.Wait()
}

// update applies mutate, publishes the new snapshot and returns the
// updated record. ok is false when the record is gone or the store
// failed; callers abandon the stage either way.
func (o *Orchestrator) update(ctx context.Context, id string, mutate func(*documents.Document) error) (documents.Document, bool) {
	doc, err := o.repo.Update(ctx, id, mutate)
	if err != nil {
		if !errors.Is(err, documents.ErrNotFound) {
			telemetry.Error("pipeline.update", map[string]any{
				"document_id": id,
				"error":       err.Error(),
			})
		}
		return documents.Document{}, false
	}
	documents.PublishUpdated(o.hub, doc)
	return doc, true
}

// fail moves the record to Failed with a log line and halts the chain.
func (o *Orchestrator) fail(ctx context.Context, id, stage string, cause error) {
	metrics.IncPipelineFailed()
	telemetry.Error("pipeline.stage", map[string]any{
		"document_id": id,
		"stage":       stage,
		"error":       cause.Error(),
	})
	o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusFailed
		doc.AppendLog(fmt.Sprintf("%s failed: %s", stage, cause.Error()))
		return nil
	})
}

func (o *Orchestrator) logStatus(id string, status documents.Status) {
	telemetry.Info("pipeline.status", map[string]any{
		"document_id": id,
		"status":      string(status),
	})
}

func (o *Orchestrator) runExtraction(id string) {
	ctx := context.Background()
	start := time.Now()
	defer func() { metrics.ObserveStageDurationMs(float64(time.Since(start).Milliseconds())) }()

	doc, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusExtractionPending
		doc.AppendLog("Starting text extraction.")
		return nil
	})
	if !ok {
		return
	}
	o.logStatus(id, documents.StatusExtractionPending)

	text, err := o.extractor.ExtractText(ctx, o.store, doc.StorageKey, doc.MimeType, doc.UploadedName)
	if err != nil {
		o.fail(ctx, id, "Text extraction", err)
		return
	}

	elapsed := time.Since(start)
	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.ExtractedText = text
		doc.Status = documents.StatusExtracted
		doc.AppendLog(fmt.Sprintf("Text extraction complete in %.2fs.", elapsed.Seconds()))
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusExtracted)

	o.dispatcher.Enqueue(id, func() { o.runClassification(id) })
}

func (o *Orchestrator) runClassification(id string) {
	ctx := context.Background()
	start := time.Now()
	defer func() { metrics.ObserveStageDurationMs(float64(time.Since(start).Milliseconds())) }()

	doc, err := o.repo.Get(ctx, id)
	if err != nil {
		return
	}
	// Text-dependent stage: nothing extracted means nothing to do.
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return
	}

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusClassificationPending
		doc.AppendLog("Starting classification.")
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusClassificationPending)

	result, err := o.providers.Classifier.Classify(ctx, ai.Truncate(doc.ExtractedText, ai.MaxClassifyChars))
	if err != nil {
		o.fail(ctx, id, "Classification", err)
		return
	}

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Classification = result.Label
		doc.ConfidenceScore = result.Confidence
		doc.Status = documents.StatusClassified
		doc.AppendLog(fmt.Sprintf("Classified as %s (%d%% confidence).", result.Label, result.Confidence))
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusClassified)

	o.dispatcher.Enqueue(id, func() { o.runDataExtraction(id) })
}

func (o *Orchestrator) runDataExtraction(id string) {
	ctx := context.Background()
	start := time.Now()
	defer func() { metrics.ObserveStageDurationMs(float64(time.Since(start).Milliseconds())) }()

	doc, err := o.repo.Get(ctx, id)
	if err != nil {
		return
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return
	}

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusDataExtractionPending
		doc.AppendLog("Starting structured data extraction.")
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusDataExtractionPending)

	fields, hasSchema := schemaFor(doc.Classification)
	if !hasSchema {
		if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
			doc.Status = documents.StatusDataExtracted
			doc.AppendLog(fmt.Sprintf("No structured data schema for %s; skipping.", orUnclassified(doc.Classification)))
			return nil
		}); !ok {
			return
		}
		o.logStatus(id, documents.StatusDataExtracted)
		o.dispatcher.Enqueue(id, func() { o.runSentiment(id) })
		return
	}

	data, err := o.providers.Structured.ExtractFields(ctx, ai.Truncate(doc.ExtractedText, ai.MaxStructuredChars), doc.Classification, fields)
	if err != nil {
		o.fail(ctx, id, "Structured data extraction", err)
		return
	}

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.StructuredData = data
		doc.Status = documents.StatusDataExtracted
		doc.AppendLog("Structured data extraction complete.")
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusDataExtracted)

	o.dispatcher.Enqueue(id, func() { o.runSentiment(id) })
}

func (o *Orchestrator) runSentiment(id string) {
	ctx := context.Background()
	start := time.Now()
	defer func() { metrics.ObserveStageDurationMs(float64(time.Since(start).Milliseconds())) }()

	doc, err := o.repo.Get(ctx, id)
	if err != nil {
		return
	}
	if strings.TrimSpace(doc.ExtractedText) == "" {
		return
	}

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusSentimentPending
		doc.AppendLog("Starting sentiment analysis.")
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusSentimentPending)

	sentiment, err := o.providers.Sentiment.AnalyzeSentiment(ctx, ai.Truncate(doc.ExtractedText, ai.MaxSentimentChars))
	logLine := fmt.Sprintf("Sentiment analysis complete: %s.", sentiment)
	if err != nil {
		// A sentiment provider failure does not fail the document.
		sentiment = documents.SentimentNotAvailable
		logLine = fmt.Sprintf("Sentiment analysis unavailable: %s.", err.Error())
	} else {
		switch sentiment {
		case ai.SentimentPositive, ai.SentimentNegative, ai.SentimentNeutral:
		default:
			sentiment = ai.SentimentNeutral
			logLine = fmt.Sprintf("Sentiment analysis complete: %s.", sentiment)
		}
	}

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Sentiment = sentiment
		doc.Status = documents.StatusAnalyzed
		doc.AppendLog(logLine)
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusAnalyzed)

	o.dispatcher.Enqueue(id, func() { o.runRename(id) })
}

func (o *Orchestrator) runRename(id string) {
	ctx := context.Background()
	start := time.Now()
	defer func() { metrics.ObserveStageDurationMs(float64(time.Since(start).Milliseconds())) }()

	doc, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusRenamingPending
		doc.AppendLog("Starting file renaming.")
		return nil
	})
	if !ok {
		return
	}
	o.logStatus(id, documents.StatusRenamingPending)

	newName, err := o.renamer.NewName(doc)
	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		switch {
		case err == nil:
			doc.FileName = newName
			doc.AppendLog(fmt.Sprintf("File renamed to %s.", newName))
		case errors.Is(err, ErrNoRenameRule):
			doc.AppendLog(fmt.Sprintf("No rename rule for %s; keeping original name.", orUnclassified(doc.Classification)))
		default:
			// Renaming is non-fatal: keep the name, keep going.
			doc.AppendLog(fmt.Sprintf("File renaming failed: %s; keeping original name.", err.Error()))
		}
		doc.Status = documents.StatusRenamed
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusRenamed)

	o.dispatcher.Enqueue(id, func() { o.runRouting(id) })
}

func (o *Orchestrator) runRouting(id string) {
	ctx := context.Background()
	start := time.Now()
	defer func() { metrics.ObserveStageDurationMs(float64(time.Since(start).Milliseconds())) }()

	if _, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.Status = documents.StatusRoutingPending
		doc.AppendLog("Starting routing.")
		return nil
	}); !ok {
		return
	}
	o.logStatus(id, documents.StatusRoutingPending)

	doc, ok := o.update(ctx, id, func(doc *documents.Document) error {
		doc.RouteDestination = destinationFor(doc.Classification)
		doc.Status = documents.StatusRouted
		doc.AppendLog(fmt.Sprintf("Routed to %s.", destinationFor(doc.Classification)))
		return nil
	})
	if !ok {
		return
	}
	o.logStatus(id, documents.StatusRouted)
	metrics.IncPipelineCompleted()

	// Notification failures never alter document state.
	if err := o.notifier.Notify(ctx, notify.Message{
		DocumentID:     doc.ID,
		Owner:          doc.OwnerID,
		FileName:       doc.FileName,
		Classification: orUnclassified(doc.Classification),
		Confidence:     doc.ConfidenceScore,
		Sentiment:      doc.Sentiment,
		Destination:    doc.RouteDestination,
	}); err != nil {
		telemetry.Error("pipeline.notify", map[string]any{
			"document_id": id,
			"error":       err.Error(),
		})
	}
}

func (o *Orchestrator) runComparison(sourceID string, targetIDs []string) {
	ctx := context.Background()
	metrics.IncComparisonRun()

	source, err := o.repo.Get(ctx, sourceID)
	if err != nil {
		return
	}

	if _, ok := o.update(ctx, sourceID, func(doc *documents.Document) error {
		doc.AppendLog(fmt.Sprintf("Comparing against %d documents.", len(targetIDs)))
		return nil
	}); !ok {
		return
	}

	sourceText := ai.Truncate(source.ExtractedText, ai.MaxCompareChars)
	results := make([]documents.ComparisonResult, len(targetIDs))
	keep := make([]bool, len(targetIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, targetID := range targetIDs {
		if targetID == sourceID {
			continue
		}
		i, targetID := i, targetID
		g.Go(func() error {
			target, err := o.repo.Get(gctx, targetID)
			if err != nil || target.OwnerID != source.OwnerID || strings.TrimSpace(target.ExtractedText) == "" {
				return nil
			}
			score, err := o.providers.Comparator.Compare(gctx, sourceText, ai.Truncate(target.ExtractedText, ai.MaxCompareChars))
			if err != nil {
				telemetry.Error("pipeline.compare", map[string]any{
					"document_id": sourceID,
					"target_id":   targetID,
					"error":       err.Error(),
				})
				score = 0
			}
			results[i] = documents.ComparisonResult{
				TargetID:   target.ID,
				TargetName: target.FileName,
				Score:      score,
			}
			keep[i] = true
			return nil
		})
	}
	_ = g.Wait()

	final := make([]documents.ComparisonResult, 0, len(targetIDs))
	for i, ok := range keep {
		if ok {
			final = append(final, results[i])
		}
	}

	o.update(ctx, sourceID, func(doc *documents.Document) error {
		doc.ComparisonResults = final
		doc.AppendLog(fmt.Sprintf("Comparison complete: %d results.", len(final)))
		return nil
	})
}

func (o *Orchestrator) runClearComparisons(id string) {
	ctx := context.Background()
	o.update(ctx, id, func(doc *documents.Document) error {
		doc.ComparisonResults = []documents.ComparisonResult{}
		doc.AppendLog("Comparison results cleared.")
		return nil
	})
}

func orUnclassified(label string) string {
	if label == "" {
		return "Unclassified"
	}
	return label
}

var _ documents.Pipeline = (*Orchestrator)(nil)
