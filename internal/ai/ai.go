// Package ai defines the capability-provider contracts the pipeline consumes.
// Each provider performs one text-analysis function and is an external
// black box behind these interfaces.
package ai

import "context"

// Providers impose hard input limits; callers truncate text to these
// ceilings before handing it over.
const (
	MaxClassifyChars   = 4000
	MaxStructuredChars = 4000
	MaxSentimentChars  = 4000
	MaxSummaryChars    = 8000
	MaxQuestionChars   = 12000
	MaxCompareChars    = 2000
)

// Sentiment values a provider may legitimately return.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// Classification is the outcome of classifying a document's text.
type Classification struct {
	Label      string
	Confidence int // 0-100
}

// Classifier assigns a category label and confidence to text.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// StructuredExtractor pulls named fields out of text for a given label.
type StructuredExtractor interface {
	ExtractFields(ctx context.Context, text, label string, fields []string) (map[string]string, error)
}

// SentimentAnalyzer reports the overall sentiment of text.
type SentimentAnalyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (string, error)
}

// Summarizer produces a short summary of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Comparator scores the semantic similarity of two texts from 0 to 100.
type Comparator interface {
	Compare(ctx context.Context, textA, textB string) (int, error)
}

// QuestionAnswerer answers a question using only the given text.
type QuestionAnswerer interface {
	Answer(ctx context.Context, text, question string) (string, error)
}

// Providers bundles every capability the pipeline can invoke.
type Providers struct {
	Classifier Classifier
	Structured StructuredExtractor
	Sentiment  SentimentAnalyzer
	Summarizer Summarizer
	Comparator Comparator
	Answerer   QuestionAnswerer
}

// Truncate bounds text to at most limit runes.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
