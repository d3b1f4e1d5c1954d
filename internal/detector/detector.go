// Package detector serves a development stand-in for the detection service.
// It accepts the same multipart upload as the real service and answers with
// a random verdict.
package detector

import (
	"encoding/json"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/validation"
)

const maxRequestSize = validation.MaxFileSize + 1<<20

type Server struct {
	Delay  time.Duration
	Logger *slog.Logger

	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewServer(delay time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Delay:  delay,
		Logger: logger,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
	r.Post("/api/analyze", s.AnalyzeHandler)
	return r
}

func (s *Server) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No video file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".mp4") {
		writeError(w, http.StatusBadRequest, "Only MP4 files are allowed")
		return
	}

	n, err := io.Copy(io.Discard, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	result := analysis.Synthesize(s.rng, s.now())
	s.mu.Unlock()

	s.Logger.Info("mock analysis",
		"file", header.Filename,
		"bytes", n,
		"prediction", result.Prediction,
		"confidence", result.Confidence,
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"prediction": result.Prediction,
		"confidence": result.Confidence,
		"timestamp":  result.Timestamp.Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
