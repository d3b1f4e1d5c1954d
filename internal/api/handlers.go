package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/kdimtricp/deepscan/internal/controller"
	"github.com/kdimtricp/deepscan/internal/models"
	"github.com/kdimtricp/deepscan/internal/state"
	"github.com/kdimtricp/deepscan/internal/upload"
	"github.com/kdimtricp/deepscan/internal/validation"
	"github.com/kdimtricp/deepscan/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

type App struct {
	Controller    *controller.Controller
	Widget        *upload.Widget
	Logger        *slog.Logger
	// MaxUploadSize caps the selected video, not the request body.
	MaxUploadSize int64
	Footer        string

	templates *template.Template
}

func NewApp(ctrl *controller.Controller, logger *slog.Logger) (*App, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		Controller:    ctrl,
		Logger:        logger,
		MaxUploadSize: validation.MaxFileSize,
		Footer:        "Currently using dummy API for demonstration. Will connect to backend API when ready.",
		templates:     tmpl,
	}
	app.Widget = upload.NewWidget(ctrl.Accept, ctrl.Analyzing)
	return app, nil
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) HomeHandler(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title  string
		Footer string
		Page   view.PageView
	}{
		Title:  "Deepfake Detector",
		Footer: app.Footer,
		Page:   view.Page(app.Controller.Snapshot()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := app.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		app.Logger.Error("rendering page", "error", err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

func (app *App) CardPartialHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := app.templates.ExecuteTemplate(w, "card", view.Page(app.Controller.Snapshot())); err != nil {
		app.Logger.Error("rendering card", "error", err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

type stateResponse struct {
	Phase   string                 `json:"phase"`
	File    *models.SelectedFile   `json:"file,omitempty"`
	Loading bool                   `json:"loading"`
	Result  *models.AnalysisResult `json:"result,omitempty"`
	Notice  string                 `json:"notice,omitempty"`
	Cycle   uint64                 `json:"cycle"`
}

func newStateResponse(s state.State) stateResponse {
	return stateResponse{
		Phase:   s.Phase().String(),
		File:    s.File,
		Loading: s.Loading,
		Result:  s.Result,
		Notice:  s.Notice,
		Cycle:   s.Cycle,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (app *App) StateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(app.Controller.Snapshot()))
}

// UploadHandler streams the form. Only the first "video" part is spooled
// and checked against MaxUploadSize; later files are skipped unread.
func (app *App) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if app.Widget.Disabled() {
		app.writeError(w, upload.ErrDisabled)
		return
	}

	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Failed to read upload"})
		return
	}

	var (
		candidates []upload.Candidate
		spool      *os.File
		source     string
		count      int
	)
	defer func() {
		if spool != nil {
			spool.Close()
			os.Remove(spool.Name())
		}
	}()

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Failed to read upload"})
			return
		}

		switch part.FormName() {
		case "video":
			candidate := upload.Candidate{
				Name:        part.FileName(),
				ContentType: declaredType(part.FileName(), part.Header.Get("Content-Type")),
			}
			if len(candidates) == 0 && candidate.ContentType == validation.MP4ContentType {
				spool, candidate.Size, err = app.spool(part)
				if err != nil {
					app.writeError(w, err)
					return
				}
				candidate.Content = spool
			}
			candidates = append(candidates, candidate)
		case "source":
			source = readField(part)
		case "count":
			count, _ = strconv.Atoi(readField(part))
		}
		part.Close()
	}

	if len(candidates) == 0 {
		app.writeError(w, upload.ErrNoFile)
		return
	}
	if skipped := max(len(candidates), count) - 1; skipped > 0 {
		app.Logger.Debug("ignoring extra files", "first", candidates[0].Name, "skipped", skipped)
	}

	if source == "drop" {
		err = app.Widget.OnDrop(candidates)
	} else {
		err = app.Widget.Pick(candidates)
	}
	if err != nil {
		app.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newStateResponse(app.Controller.Snapshot()))
}

// spool copies the selected video to a temporary file, reading at most one
// byte past MaxUploadSize.
func (app *App) spool(part io.Reader) (*os.File, int64, error) {
	f, err := os.CreateTemp("", "deepscan-upload-*")
	if err != nil {
		return nil, 0, fmt.Errorf("creating spool file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(part, app.MaxUploadSize+1))
	if err == nil && n > app.MaxUploadSize {
		err = &validation.Error{Kind: validation.TooLarge, Message: validation.TooLargeMessage}
	}
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		var verr *validation.Error
		if errors.As(err, &verr) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("spooling upload: %w", err)
	}
	return f, n, nil
}

func readField(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(data))
}

func (app *App) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	st, err := app.Controller.Reanalyze(r.Context())
	if err != nil {
		app.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

func (app *App) ResetHandler(w http.ResponseWriter, r *http.Request) {
	st, err := app.Controller.Reset(r.Context())
	if err != nil {
		app.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(st))
}

// declaredType is the part's Content-Type, falling back to the extension
// when the client sent a generic type.
func declaredType(filename, contentType string) string {
	if contentType == "" || contentType == "application/octet-stream" {
		return upload.ContentTypeFor(filename, nil)
	}
	return contentType
}

func (app *App) writeError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Message, Kind: verr.Kind.String()})
	case errors.Is(err, upload.ErrNoFile):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, upload.ErrDisabled),
		errors.Is(err, state.ErrAnalysisInFlight),
		errors.Is(err, state.ErrInvalidTransition),
		errors.Is(err, state.ErrNoFile):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		app.Logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Something went wrong. Please try again."})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
