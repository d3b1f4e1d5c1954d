package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// EventsHandler streams every committed state as a server-sent "state" event.
func (app *App) EventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, cancel := app.Controller.Subscribe()
	defer cancel()

	clientGone := r.Context().Done()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}

			data, err := json.Marshal(newStateResponse(update))
			if err != nil {
				app.Logger.Error("marshaling state", "error", err)
				continue
			}

			fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
			flusher.Flush()

		case <-clientGone:
			return
		}
	}
}
