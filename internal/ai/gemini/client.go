// Package gemini implements the ai provider interfaces using the
// Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docflow-backend/internal/ai"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client talks to the Gemini generateContent endpoint and implements
// every capability interface in the ai package.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Gemini client.
func NewClient(apiKey, model string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float32 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{Temperature: 0},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("gemini request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error: %s (%s)", parsed.Error.Message, parsed.Error.Status)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response missing candidates")
	}

	content := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if content == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return content, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Classify labels the document text. A response that cannot be parsed
// is treated as unclassifiable rather than an error.
func (c *Client) Classify(ctx context.Context, text string) (ai.Classification, error) {
	content, err := c.generate(ctx, classifyPrompt(text))
	if err != nil {
		return ai.Classification{}, err
	}

	var out struct {
		Label      string `json:"label"`
		Confidence int    `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &out); err != nil || strings.TrimSpace(out.Label) == "" {
		return ai.Classification{Label: "Unclassified", Confidence: 0}, nil
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 100 {
		out.Confidence = 100
	}
	return ai.Classification{Label: strings.TrimSpace(out.Label), Confidence: out.Confidence}, nil
}

// ExtractFields pulls the named fields out of the text as a flat map.
func (c *Client) ExtractFields(ctx context.Context, text, label string, fields []string) (map[string]string, error) {
	content, err := c.generate(ctx, extractPrompt(text, label, fields))
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return nil, fmt.Errorf("gemini extraction parse: %w", err)
	}
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		switch v := raw[field].(type) {
		case string:
			out[field] = v
		case float64:
			out[field] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
			out[field] = ""
		default:
			out[field] = fmt.Sprint(v)
		}
	}
	return out, nil
}

// AnalyzeSentiment returns Positive, Negative or Neutral. Anything
// else the model says collapses to Neutral.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (string, error) {
	content, err := c.generate(ctx, sentimentPrompt(text))
	if err != nil {
		return "", err
	}
	switch got := strings.TrimSpace(content); got {
	case ai.SentimentPositive, ai.SentimentNegative, ai.SentimentNeutral:
		return got, nil
	default:
		return ai.SentimentNeutral, nil
	}
}

// Summarize produces a short summary of the text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, summaryPrompt(text))
}

// Compare scores similarity of two texts from 0 to 100. A non-numeric
// response scores 0.
func (c *Client) Compare(ctx context.Context, textA, textB string) (int, error) {
	content, err := c.generate(ctx, comparePrompt(textA, textB))
	if err != nil {
		return 0, err
	}
	score, err := strconv.Atoi(strings.TrimSpace(stripFences(content)))
	if err != nil {
		return 0, nil
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// Answer responds to a question using only the supplied text.
func (c *Client) Answer(ctx context.Context, text, question string) (string, error) {
	return c.generate(ctx, questionPrompt(text, question))
}

var (
	_ ai.Classifier          = (*Client)(nil)
	_ ai.StructuredExtractor = (*Client)(nil)
	_ ai.SentimentAnalyzer   = (*Client)(nil)
	_ ai.Summarizer          = (*Client)(nil)
	_ ai.Comparator          = (*Client)(nil)
	_ ai.QuestionAnswerer    = (*Client)(nil)
)
