package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/foxseedlab/koenote/internal/config"
	"github.com/foxseedlab/koenote/internal/note"
	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/go-chi/chi/v5"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing;
// larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	notes, err := h.notes.ListByOwner(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if notes == nil {
		notes = []repository.Note{}
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// processAudio runs the whole pipeline on a client-finalized artifact:
// multipart field "audio", at most 50 MB, mimetype audio/*, optional
// "duration" field in seconds.
func (h *Handler) processAudio(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadBytes+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'audio' is required")
		return
	}
	defer file.Close()

	if header.Size > config.MaxUploadBytes {
		writeError(w, http.StatusBadRequest, "audio file exceeds the 50MB limit")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "audio/") {
		writeError(w, http.StatusBadRequest, "only audio uploads are accepted")
		return
	}

	duration := 0
	if v := r.FormValue("duration"); v != "" {
		parsed, parseErr := strconv.Atoi(v)
		if parseErr != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "duration must be a non-negative integer")
			return
		}
		duration = parsed
	}

	saved, err := h.store.Save(file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := h.notes.ProcessArtifact(r.Context(), note.ProcessInput{
		OwnerID:         owner,
		Filename:        saved.Filename,
		DurationSeconds: duration,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
