package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docusum/internal/config"
	"github.com/dgallion1/docusum/internal/doctree"
	"github.com/dgallion1/docusum/internal/llm"
	"github.com/dgallion1/docusum/internal/pipeline"
	"github.com/dgallion1/docusum/internal/store"
)

// fakePipeline records jobs and returns canned results.
type fakePipeline struct {
	res       *doctree.Result
	err       error
	submitErr error
	outputDir string
	jobs      map[string]*pipeline.Job
}

func newFakePipeline(t *testing.T) *fakePipeline {
	return &fakePipeline{
		res: &doctree.Result{
			DocumentID: "doc-1",
			Sections: []doctree.Section{
				{Title: "BAB I PENDAHULUAN", Summary: "Ringkasan pendahuluan.", State: doctree.StateSucceeded},
			},
			Artifacts: doctree.Artifacts{DOCX: "doc-1.docx", PDF: "doc-1.summary.pdf"},
		},
		outputDir: t.TempDir(),
		jobs:      make(map[string]*pipeline.Job),
	}
}

func (f *fakePipeline) Run(ctx context.Context, job *pipeline.Job) (*doctree.Result, error) {
	f.jobs[job.ID] = job
	return f.res, f.err
}

func (f *fakePipeline) Submit(job *pipeline.Job) error {
	f.jobs[job.ID] = job
	return f.submitErr
}

func (f *fakePipeline) GetJob(id string) *pipeline.Job { return f.jobs[id] }

func (f *fakePipeline) GateStats() pipeline.GateStats {
	return pipeline.GateStats{Capacity: 10, InFlight: 2, Peak: 5}
}

func (f *fakePipeline) OutputDir() string { return f.outputDir }

type fakeClient struct{ stats *llm.LLMStats }

func (c *fakeClient) Summarize(context.Context, string) (string, error) { return "", nil }
func (c *fakeClient) Model() string                                    { return "gemini-test" }
func (c *fakeClient) LatencyStats() *llm.LLMStats                      { return c.stats }
func (c *fakeClient) Close()                                           {}

func testServer(t *testing.T, p Pipeline, apiKey string) *Server {
	t.Helper()
	comments, err := store.OpenComments(":memory:")
	if err != nil {
		t.Fatalf("OpenComments: %v", err)
	}
	t.Cleanup(func() { comments.Close() })
	cfg := config.Config{APIKey: apiKey, MaxUploadBytes: 1024}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(p, &fakeClient{stats: llm.NewLLMStats(time.Hour)}, comments, log, cfg)
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(content)
	} else {
		mw.WriteField("note", "no file")
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, srv http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ctype := multipartBody(t, "file", filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestHealth(t *testing.T) {
	srv := testServer(t, newFakePipeline(t), "")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://thesis.example.ac.id")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected permissive CORS header")
	}
}

func TestCORS_Preflight(t *testing.T) {
	p := newFakePipeline(t)
	srv := testServer(t, p, "secret")

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://thesis.example.ac.id")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code >= 300 {
		t.Fatalf("expected preflight success, got %d", rec.Code)
	}
	h := rec.Header()
	if h.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("unexpected allow-origin %q", h.Get("Access-Control-Allow-Origin"))
	}
	if h.Get("Access-Control-Allow-Methods") != http.MethodPost {
		t.Errorf("unexpected allow-methods %q", h.Get("Access-Control-Allow-Methods"))
	}
	if !strings.Contains(h.Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Errorf("unexpected allow-headers %q", h.Get("Access-Control-Allow-Headers"))
	}
	if len(p.jobs) != 0 {
		t.Error("preflight must not reach the upload handler")
	}
}

func TestUpload_Success(t *testing.T) {
	p := newFakePipeline(t)
	srv := testServer(t, p, "")

	rec := doUpload(t, srv, "/api/upload", "skripsi.pdf", []byte("%PDF-1.4 body"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Success || got.DocumentID != "doc-1" || got.File != "skripsi.pdf" {
		t.Errorf("unexpected response %+v", got)
	}
	if got.DownloadDOCX != "/api/download/doc-1.docx" || got.DownloadPDF != "/api/download/doc-1.summary.pdf" {
		t.Errorf("unexpected download links %q %q", got.DownloadDOCX, got.DownloadPDF)
	}
	if len(got.Sections) != 1 || got.Sections[0].Title != "BAB I PENDAHULUAN" {
		t.Errorf("unexpected sections %+v", got.Sections)
	}
}

func TestUpload_Validation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     int
	}{
		{"wrong extension", "notes.txt", []byte("%PDF-1.4"), http.StatusBadRequest},
		{"not a pdf", "fake.pdf", []byte("hello world"), http.StatusBadRequest},
		{"too large", "big.pdf", append([]byte("%PDF-1.4"), bytes.Repeat([]byte("x"), 2048)...), http.StatusRequestEntityTooLarge},
		{"upper-case extension", "SKRIPSI.PDF", []byte("%PDF-1.7"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testServer(t, newFakePipeline(t), "")
			rec := doUpload(t, srv, "/api/upload", tt.filename, tt.content)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	srv := testServer(t, newFakePipeline(t), "")
	body, ctype := multipartBody(t, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestUpload_Failures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"export", &pipeline.PhaseError{Phase: pipeline.StatusExporting, Err: errors.New("disk full")}, "export failed: disk full"},
		{"extraction", &pipeline.PhaseError{Phase: pipeline.StatusExtracting, Err: errors.New("save upload: disk full")}, "summarization failed: save upload: disk full"},
		{"other", errors.New("boom"), "summarization failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePipeline(t)
			p.res, p.err = nil, tt.err
			rec := doUpload(t, testServer(t, p, ""), "/api/upload", "a.pdf", []byte("%PDF-1.4"))
			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if got := decode(t, rec)["error"]; got != tt.want {
				t.Errorf("expected error %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSubmitAndPoll(t *testing.T) {
	p := newFakePipeline(t)
	srv := testServer(t, p, "")

	rec := doUpload(t, srv, "/api/summaries", "a.pdf", []byte("%PDF-1.4"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	m := decode(t, rec)
	jobID, _ := m["job_id"].(string)
	if jobID == "" || m["poll_url"] != "/api/summaries/"+jobID || m["status"] != "queued" {
		t.Fatalf("unexpected submit response %v", m)
	}

	p.jobs[jobID].SetResult(p.res)
	p.jobs[jobID].SetStatus(pipeline.StatusCompleted, "done")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/"+jobID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	m = decode(t, rec)
	if m["status"] != "completed" || m["download_docx"] != "/api/download/doc-1.docx" {
		t.Errorf("unexpected status response %v", m)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summaries/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	p := newFakePipeline(t)
	p.submitErr = errors.New("job queue is full (1)")
	rec := doUpload(t, testServer(t, p, ""), "/api/summaries", "a.pdf", []byte("%PDF-1.4"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestDownload(t *testing.T) {
	p := newFakePipeline(t)
	if err := os.WriteFile(filepath.Join(p.outputDir, "doc-1.summary.pdf"), []byte("%PDF-1.3 data"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := testServer(t, p, "secret")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download/doc-1.summary.pdf", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "%PDF-1.3 data" {
		t.Fatalf("unexpected download %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}

	for _, name := range []string{"missing.docx", "..%2Fsecret.pdf"} {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/download/"+name, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", name, rec.Code)
		}
	}
}

func TestAuth(t *testing.T) {
	srv := testServer(t, newFakePipeline(t), "secret")

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("header %q: expected %d, got %d", tt.header, tt.want, rec.Code)
		}
	}
}

func TestComments(t *testing.T) {
	srv := testServer(t, newFakePipeline(t), "")

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	if rec := post(`{"name":"Sari","text":"Ringkasannya membantu."}`); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := post(`{"text":"  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank text, got %d", rec.Code)
	}
	if rec := post(`not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad json, got %d", rec.Code)
	}
	if rec := post(`{"text":"tanpa nama"}`); rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comments?limit=10", nil))
	var got struct {
		Comments []store.Comment `json:"comments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got.Comments))
	}
	if got.Comments[0].Name != "anonymous" || got.Comments[1].Name != "Sari" {
		t.Errorf("expected newest first with default name, got %+v", got.Comments)
	}
}

func TestLLMStats(t *testing.T) {
	srv := testServer(t, newFakePipeline(t), "")
	stats := srv.client.LatencyStats()
	stats.Record(250)
	stats.RecordChapter(llm.ChapterOutcome{State: "succeeded", Attempts: 2, Timeouts: 1})
	stats.RecordChapter(llm.ChapterOutcome{State: "fallback_used", Attempts: 4, ServiceErrors: 4})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Model string             `json:"model"`
		Stats llm.StatsSnapshot  `json:"stats"`
		Gate  pipeline.GateStats `json:"gate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Model != "gemini-test" || got.Gate.Peak != 5 {
		t.Errorf("unexpected model or gate %+v", got)
	}
	if got.Stats.Latency.Count != 1 || got.Stats.Latency.MaxMs != 250 {
		t.Errorf("unexpected latency %+v", got.Stats.Latency)
	}
	c := got.Stats.Chapters
	if c.Total != 2 || c.Succeeded != 1 || c.FallbackUsed != 1 || c.Attempts != 6 || c.Timeouts != 1 || c.ServiceErrors != 4 {
		t.Errorf("unexpected chapter outcomes %+v", c)
	}
}
