package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_Docx(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>Invoice number INV-7</w:t></w:r></w:p><w:p><w:r><w:t>Total due 500</w:t></w:r></w:p>`)

	e := New(nil)
	got, err := e.ExtractTextFromBytes(context.Background(), data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "invoice.docx")
	if err != nil {
		t.Fatalf("extract docx: %v", err)
	}
	if !strings.Contains(got, "Invoice number INV-7") || !strings.Contains(got, "Total due 500") {
		t.Fatalf("unexpected text: %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Fatalf("expected paragraph break in %q", got)
	}
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>hello</w:t></w:r></w:p>`)

	e := New(nil)
	if _, err := e.ExtractTextFromBytes(context.Background(), data, "application/zip", "test.docx"); err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("notes.txt")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	e := New(nil)
	_, err = e.ExtractTextFromBytes(context.Background(), buf.Bytes(), "application/zip", "notes.zip")
	if err == nil {
		t.Fatal("expected unsupported mime error for zip")
	}
	if !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractTextFromBytes_PlainText(t *testing.T) {
	e := New(nil)
	got, err := e.ExtractTextFromBytes(context.Background(), []byte("  plain contract text \n"), "text/plain; charset=utf-8", "contract.txt")
	if err != nil {
		t.Fatalf("extract text: %v", err)
	}
	if got != "plain contract text" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtractTextFromBytes_ImageWithoutOCR(t *testing.T) {
	e := New(nil)
	if _, err := e.ExtractTextFromBytes(context.Background(), []byte{0x89, 0x50}, "image/png", "scan.png"); err == nil {
		t.Fatal("expected error with no OCR provider")
	}
}

type stubOCR struct {
	text string
}

func (s stubOCR) Recognize(ctx context.Context, data []byte, fileName string) (string, error) {
	return s.text, nil
}

func TestExtractTextFromBytes_ImageUsesOCR(t *testing.T) {
	e := New(stubOCR{text: "scanned words"})
	got, err := e.ExtractTextFromBytes(context.Background(), []byte{0x89, 0x50}, "image/png", "scan.png")
	if err != nil {
		t.Fatalf("extract image: %v", err)
	}
	if got != "scanned words" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestSpaceOCRRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("apikey") != "test-key" {
			t.Errorf("apikey = %q", r.FormValue("apikey"))
		}
		if r.FormValue("filetype") != "PNG" {
			t.Errorf("filetype = %q", r.FormValue("filetype"))
		}
		fmt.Fprint(w, `{"ParsedResults":[{"ParsedText":"ocr text\r\n"}],"IsErroredOnProcessing":false}`)
	}))
	defer srv.Close()

	o, err := NewSpaceOCR("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewSpaceOCR: %v", err)
	}
	got, err := o.Recognize(context.Background(), []byte{0x89, 0x50}, "scan.png")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got != "ocr text" {
		t.Fatalf("Recognize = %q", got)
	}
}

func TestSpaceOCRRecognizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ParsedResults":[],"IsErroredOnProcessing":true,"ErrorMessage":["bad image"]}`)
	}))
	defer srv.Close()

	o, err := NewSpaceOCR("test-key", srv.URL)
	if err != nil {
		t.Fatalf("NewSpaceOCR: %v", err)
	}
	if _, err := o.Recognize(context.Background(), []byte{0x00}, "scan.png"); err == nil {
		t.Fatal("expected ocr error")
	}
}
