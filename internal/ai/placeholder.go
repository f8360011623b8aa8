package ai

import (
	"context"
	"errors"
)

var errNotConfigured = errors.New("ai provider not configured")

// Placeholder satisfies every capability interface and fails each
// call. Used when no provider credentials are configured.
type Placeholder struct{}

func (Placeholder) Classify(ctx context.Context, text string) (Classification, error) {
	return Classification{}, errNotConfigured
}

func (Placeholder) ExtractFields(ctx context.Context, text, label string, fields []string) (map[string]string, error) {
	return nil, errNotConfigured
}

func (Placeholder) AnalyzeSentiment(ctx context.Context, text string) (string, error) {
	return "", errNotConfigured
}

func (Placeholder) Summarize(ctx context.Context, text string) (string, error) {
	return "", errNotConfigured
}

func (Placeholder) Compare(ctx context.Context, textA, textB string) (int, error) {
	return 0, errNotConfigured
}

func (Placeholder) Answer(ctx context.Context, text, question string) (string, error) {
	return "", errNotConfigured
}

// PlaceholderProviders returns a provider set whose calls all fail.
func PlaceholderProviders() Providers {
	return Providers{
		Classifier: Placeholder{},
		Structured: Placeholder{},
		Sentiment:  Placeholder{},
		Summarizer: Placeholder{},
		Comparator: Placeholder{},
		Answerer:   Placeholder{},
	}
}
