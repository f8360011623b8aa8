package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const defaultOCREndpoint = "https://api.ocr.space/parse/image"

// SpaceOCR recognizes image text via the OCR.space parse API.
type SpaceOCR struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewSpaceOCR constructs an OCR.space client. endpoint may be empty to
// use the public API.
func NewSpaceOCR(apiKey, endpoint string) (*SpaceOCR, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OCR_API_KEY is required")
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultOCREndpoint
	}
	return &SpaceOCR{
		apiKey:   apiKey,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type ocrResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool   `json:"IsErroredOnProcessing"`
	ErrorMessage          any    `json:"ErrorMessage"`
	ErrorDetails          string `json:"ErrorDetails"`
}

// Recognize submits the image and returns the parsed text.
func (o *SpaceOCR) Recognize(ctx context.Context, data []byte, fileName string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("apikey", o.apiKey); err != nil {
		return "", err
	}
	if err := w.WriteField("language", "eng"); err != nil {
		return "", err
	}
	if err := w.WriteField("isOverlayRequired", "false"); err != nil {
		return "", err
	}
	if err := w.WriteField("filetype", ocrFileType(fileName)); err != nil {
		return "", err
	}
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed ocrResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ocr response parse: %s", strings.TrimSpace(string(raw)))
	}
	if parsed.IsErroredOnProcessing || parsed.ErrorMessage != nil {
		return "", fmt.Errorf("ocr error: %v", parsed.ErrorMessage)
	}
	if len(parsed.ParsedResults) == 0 {
		return "", fmt.Errorf("ocr response missing results")
	}
	return strings.TrimSpace(parsed.ParsedResults[0].ParsedText), nil
}

func ocrFileType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	case ".tif", ".tiff":
		return "TIFF"
	default:
		return "PNG"
	}
}

var _ ImageOCR = (*SpaceOCR)(nil)
