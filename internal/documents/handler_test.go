package documents_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/bootstrap"
	"docflow-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func uploadFile(t *testing.T, app *bootstrap.App, userID, fileName, content string) string {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-User-Id", userID)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		DocumentID string `json:"documentId"`
		Status     string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatal("expected documentId, got empty")
	}
	if created.Status != "Ingested" {
		t.Fatalf("expected Ingested on create, got %s", created.Status)
	}
	return created.DocumentID
}

func TestDocumentsUploadListGet(t *testing.T) {
	app := buildTestApp(t)
	id := uploadFile(t, app, "user-1", "hello.txt", "hello world")
	app.Orchestrator.Wait()

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	reqList.Header.Set("X-User-Id", "user-1")
	respList := httptest.NewRecorder()
	app.Router.ServeHTTP(respList, reqList)
	if respList.Code != http.StatusOK {
		t.Fatalf("list status = %d", respList.Code)
	}
	var listed []struct {
		DocumentID string `json:"documentId"`
		FileName   string `json:"fileName"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].DocumentID != id {
		t.Fatalf("listed = %+v", listed)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil)
	reqGet.Header.Set("X-User-Id", "user-1")
	respGet := httptest.NewRecorder()
	app.Router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusOK {
		t.Fatalf("get status = %d", respGet.Code)
	}
	var fetched struct {
		FileName string `json:"fileName"`
		Logs     []struct {
			Message string `json:"message"`
		} `json:"logs"`
	}
	if err := json.NewDecoder(respGet.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.FileName != "hello.txt" {
		t.Fatalf("fileName = %s", fetched.FileName)
	}
	if len(fetched.Logs) == 0 {
		t.Fatal("expected processing logs")
	}
}

func TestDocumentsOwnershipAndMissing(t *testing.T) {
	app := buildTestApp(t)
	id := uploadFile(t, app, "user-1", "hello.txt", "hello world")
	app.Orchestrator.Wait()

	reqOther := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil)
	reqOther.Header.Set("X-User-Id", "user-2")
	respOther := httptest.NewRecorder()
	app.Router.ServeHTTP(respOther, reqOther)
	if respOther.Code != http.StatusForbidden {
		t.Fatalf("cross-user get status = %d, want 403", respOther.Code)
	}

	reqMissing := httptest.NewRequest(http.MethodGet, "/api/v1/documents/nope", nil)
	reqMissing.Header.Set("X-User-Id", "user-1")
	respMissing := httptest.NewRecorder()
	app.Router.ServeHTTP(respMissing, reqMissing)
	if respMissing.Code != http.StatusNotFound {
		t.Fatalf("missing get status = %d, want 404", respMissing.Code)
	}

	reqAnon := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	respAnon := httptest.NewRecorder()
	app.Router.ServeHTTP(respAnon, reqAnon)
	if respAnon.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list status = %d, want 401", respAnon.Code)
	}
}

func TestDocumentsDelete(t *testing.T) {
	app := buildTestApp(t)
	id := uploadFile(t, app, "user-1", "hello.txt", "hello world")
	app.Orchestrator.Wait()

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+id, nil)
	reqDel.Header.Set("X-User-Id", "user-1")
	respDel := httptest.NewRecorder()
	app.Router.ServeHTTP(respDel, reqDel)
	if respDel.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", respDel.Code)
	}

	reqGet := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil)
	reqGet.Header.Set("X-User-Id", "user-1")
	respGet := httptest.NewRecorder()
	app.Router.ServeHTTP(respGet, reqGet)
	if respGet.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", respGet.Code)
	}
}

func TestDocumentsCompare(t *testing.T) {
	app := buildTestApp(t)
	id := uploadFile(t, app, "user-1", "hello.txt", "hello world")
	app.Orchestrator.Wait()

	// A run with no targets is accepted and completes with empty results.
	reqEmpty := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/compare", bytes.NewReader([]byte(`{"targetIds":[]}`)))
	reqEmpty.Header.Set("Content-Type", "application/json")
	reqEmpty.Header.Set("X-User-Id", "user-1")
	respEmpty := httptest.NewRecorder()
	app.Router.ServeHTTP(respEmpty, reqEmpty)
	if respEmpty.Code != http.StatusAccepted {
		t.Fatalf("empty targets status = %d, want 202", respEmpty.Code)
	}
	app.Orchestrator.Wait()

	reqMissing := httptest.NewRequest(http.MethodPost, "/api/v1/documents/no-such-doc/compare", bytes.NewReader([]byte(`{"targetIds":["a"]}`)))
	reqMissing.Header.Set("Content-Type", "application/json")
	reqMissing.Header.Set("X-User-Id", "user-1")
	respMissing := httptest.NewRecorder()
	app.Router.ServeHTTP(respMissing, reqMissing)
	if respMissing.Code != http.StatusNotFound {
		t.Fatalf("missing document status = %d, want 404", respMissing.Code)
	}
}
