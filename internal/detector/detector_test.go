package detector

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
	"testing"
	"time"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func multipartRequest(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(content)
	} else {
		writer.WriteField("other", "value")
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestAnalyzeHandler_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name     string
		field    string
		filename string
		want     string
	}{
		{name: "missing file", field: "", want: "No video file provided"},
		{name: "wrong field", field: "file", filename: "clip.mp4", want: "No video file provided"},
		{name: "not mp4", field: "video", filename: "clip.avi", want: "Only MP4 files are allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartRequest(t, tt.field, tt.filename, []byte("data"))
			resp, err := http.Post(ts.URL+"/api/analyze", contentType, body)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var payload map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if payload["error"] != tt.want {
				t.Errorf("expected error %q, got %q", tt.want, payload["error"])
			}
		})
	}
}

func TestAnalyzeHandler_Success(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartRequest(t, "video", "clip.MP4", []byte("fake mp4 bytes"))
	resp, err := http.Post(ts.URL+"/api/analyze", contentType, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var payload struct {
		Prediction string  `json:"prediction"`
		Confidence float64 `json:"confidence"`
		Timestamp  string  `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if _, err := models.ParsePrediction(payload.Prediction); err != nil {
		t.Errorf("unexpected prediction: %v", err)
	}
	if payload.Confidence < 60 || payload.Confidence > 90 {
		t.Errorf("confidence %v outside [60, 90]", payload.Confidence)
	}
	if payload.Timestamp != "2024-05-01T12:00:00Z" {
		t.Errorf("unexpected timestamp %q", payload.Timestamp)
	}
}

func TestServer_WithHTTPClient(t *testing.T) {
	ts := newTestServer(t)

	client := analysis.NewHTTPClient(ts.URL+"/api", 5*time.Second)
	result, err := client.Analyze(context.Background(), analysis.Upload{
		Name:        "clip.mp4",
		ContentType: "video/mp4",
		Size:        4,
		Body:        bytes.NewReader([]byte("data")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence < 60 || result.Confidence > 90 {
		t.Errorf("confidence %v outside [60, 90]", result.Confidence)
	}
	if !result.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", result.Timestamp)
	}

	_, err = client.Analyze(context.Background(), analysis.Upload{
		Name:        "clip.mov",
		ContentType: "video/quicktime",
		Body:        bytes.NewReader([]byte("data")),
	})
	var aerr *analysis.Error
	if !errors.As(err, &aerr) || aerr.Message != "Only MP4 files are allowed" {
		t.Errorf("expected service error message, got %v", err)
	}
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ping")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}
}
