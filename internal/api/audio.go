package api

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/go-chi/chi/v5"
)

// serveAudio streams a stored artifact by its bare filename. Anything that
// looks like a path is rejected before the store is consulted.
func (h *Handler) serveAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !artifact.ValidFilename(filename) {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	f, err := h.store.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "audio file not found")
			return
		}
		writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/webm")
	http.ServeContent(w, r, filename, time.Time{}, f)
}
