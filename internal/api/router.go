package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(app.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", app.HomeHandler)
	r.Get("/ping", PingHandler)
	r.Get("/partials/card", app.CardPartialHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", app.StateHandler)
		r.Get("/events", app.EventsHandler)
		r.Post("/upload", app.UploadHandler)
		r.Post("/analyze", app.AnalyzeHandler)
		r.Post("/reset", app.ResetHandler)
	})

	return r
}
