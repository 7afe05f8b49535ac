package summarize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/voxnote/internal/config"
	"github.com/hpungsan/voxnote/internal/errors"
	"github.com/hpungsan/voxnote/internal/note"
)

func newTestClient(url string) *Client {
	cfg := config.DefaultConfig()
	cfg.SummaryEndpoint = url
	return New(cfg, nil)
}

func TestSummarize_Success(t *testing.T) {
	var gotKey string
	var gotBody request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- one\n- two"}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL + "/v1beta/models/gemini-pro:generateContent")
	got, err := c.Summarize(context.Background(), "we talked", note.SummaryBullet, "secret")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "- one\n- two" {
		t.Errorf("Summarize() = %q", got)
	}
	if gotKey != "secret" {
		t.Errorf("key = %q, want secret", gotKey)
	}
	if len(gotBody.Contents) != 1 || !strings.Contains(gotBody.Contents[0].Parts[0].Text, "we talked") {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestSummarize_Preconditions(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()
	c := newTestClient(srv.URL)

	if _, err := c.Summarize(context.Background(), "text", note.SummaryBullet, ""); !errors.Is(err, errors.ErrMissingCredential) {
		t.Errorf("missing key error = %v, want MISSING_CREDENTIAL", err)
	}
	if _, err := c.Summarize(context.Background(), "  \n", note.SummaryBullet, "k"); !errors.Is(err, errors.ErrEmptyTranscript) {
		t.Errorf("empty transcript error = %v, want EMPTY_TRANSCRIPT", err)
	}
	if called {
		t.Error("server called despite failed precondition")
	}
}

func TestSummarize_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text", note.SummaryParagraph, "bad")
	if !errors.Is(err, errors.ErrSummaryFailed) {
		t.Fatalf("error = %v, want SUMMARY_FAILED", err)
	}
	vErr, _ := errors.As(err)
	if vErr.Message != "API key not valid" {
		t.Errorf("Message = %q, want API key not valid", vErr.Message)
	}
	if vErr.Details["http_status"] != http.StatusBadRequest {
		t.Errorf("http_status = %v, want 400", vErr.Details["http_status"])
	}
}

func TestSummarize_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text", note.SummaryBullet, "k")
	vErr, ok := errors.As(err)
	if !ok || vErr.Code != errors.ErrSummaryFailed {
		t.Fatalf("error = %v, want SUMMARY_FAILED", err)
	}
	if !strings.Contains(vErr.Message, "502") {
		t.Errorf("Message = %q, want HTTP status", vErr.Message)
	}
}

func TestSummarize_MissingTextPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Summarize(context.Background(), "text", note.SummaryBullet, "k")
	if !errors.Is(err, errors.ErrSummaryFailed) {
		t.Fatalf("error = %v, want SUMMARY_FAILED", err)
	}
}

func TestSummarize_BusyWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	done := make(chan error, 1)
	go func() {
		_, err := c.Summarize(context.Background(), "text", note.SummaryBullet, "k")
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first request never reached the server")
	}
	if _, err := c.Summarize(context.Background(), "text", note.SummaryBullet, "k"); !errors.Is(err, errors.ErrBusy) {
		t.Errorf("second call error = %v, want BUSY", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first call error = %v", err)
	}
	if c.InFlight() {
		t.Error("InFlight() = true after completion")
	}
}

func TestPrompt(t *testing.T) {
	if !strings.Contains(Prompt("x", note.SummaryBullet), "bulleted") {
		t.Error("bullet prompt does not ask for bullets")
	}
	if !strings.Contains(Prompt("x", note.SummaryParagraph), "paragraphs") {
		t.Error("paragraph prompt does not ask for paragraphs")
	}
}

func TestExtractByPath(t *testing.T) {
	var root any
	json.Unmarshal([]byte(`{"a":{"b":[{"c":"x"},{"c":2}]},"n":1.5,"ok":true}`), &root)

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"a.b[0].c", "x", true},
		{"a.b[1].c", "2", true},
		{"n", "1.5", true},
		{"ok", "true", true},
		{"a.b[2].c", "", false},
		{"a.b", "", false},
		{"a.b[x]", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := extractByPath(root, tt.path)
		if got != tt.want || ok != tt.ok {
			t.Errorf("extractByPath(%q) = %q, %v, want %q, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}
