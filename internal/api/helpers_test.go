package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/controller"
	"github.com/kdimtricp/deepscan/internal/state"
	"github.com/kdimtricp/deepscan/internal/storage"
)

type TestServer struct {
	Server  *httptest.Server
	App     *App
	Storage *storage.LocalStorage
	TempDir string
}

func setupTestServer(t *testing.T, client analysis.Client) *TestServer {
	t.Helper()

	tempDir := t.TempDir()
	localStorage, err := storage.NewLocalStorage(tempDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := controller.New(client, localStorage, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ctrl.Run(ctx)
		close(done)
	}()

	app, err := NewApp(ctrl, logger)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})

	return &TestServer{
		Server:  server,
		App:     app,
		Storage: localStorage,
		TempDir: tempDir,
	}
}

type uploadPart struct {
	filename    string
	contentType string
	content     []byte
}

func mp4Part(filename string, content string) uploadPart {
	return uploadPart{filename: filename, contentType: "video/mp4", content: []byte(content)}
}

func createMultipartUpload(source string, parts ...uploadPart) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, p.filename))
		if p.contentType != "" {
			header.Set("Content-Type", p.contentType)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(p.content); err != nil {
			return nil, "", err
		}
	}

	if source != "" {
		if err := writer.WriteField("source", source); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func (ts *TestServer) upload(t *testing.T, source string, parts ...uploadPart) (*http.Response, []byte) {
	t.Helper()

	body, contentType, err := createMultipartUpload(source, parts...)
	if err != nil {
		t.Fatalf("Failed to create multipart upload: %v", err)
	}

	resp, err := http.Post(ts.Server.URL+"/api/upload", contentType, body)
	if err != nil {
		t.Fatalf("Failed to upload video: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return resp, data
}

func (ts *TestServer) post(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.Post(ts.Server.URL+path, "", nil)
	if err != nil {
		t.Fatalf("Failed to POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func (ts *TestServer) state(t *testing.T) stateResponse {
	t.Helper()

	resp, err := http.Get(ts.Server.URL + "/api/state")
	if err != nil {
		t.Fatalf("Failed to get state: %v", err)
	}
	defer resp.Body.Close()

	var st stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	return st
}

func (ts *TestServer) waitForPhase(t *testing.T, phase state.Phase) stateResponse {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := ts.state(t)
		if st.Phase == phase.String() {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for phase %s", phase)
	return stateResponse{}
}

func decodeError(t *testing.T, data []byte) errorResponse {
	t.Helper()

	var e errorResponse
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("Failed to decode error %q: %v", data, err)
	}
	return e
}

func decodeState(t *testing.T, data []byte) stateResponse {
	t.Helper()

	var st stateResponse
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("Failed to decode state %q: %v", data, err)
	}
	return st
}
