package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/foxseedlab/koenote/internal/capture"
	"github.com/foxseedlab/koenote/internal/note"
	"github.com/go-chi/chi/v5"
)

// maxChunkBytes bounds a single appended segment; a full session is still
// capped by the upload limit at processing time.
const maxChunkBytes = 10 << 20

type captureStateResponse struct {
	ID              string        `json:"id"`
	State           capture.State `json:"state"`
	ElapsedSeconds  int           `json:"elapsedSeconds"`
	SizeBytes       int64         `json:"sizeBytes"`
	DurationSeconds *int          `json:"durationSeconds,omitempty"`
}

func captureState(s *capture.Session) captureStateResponse {
	resp := captureStateResponse{
		ID:             s.ID,
		State:          s.State(),
		ElapsedSeconds: s.ElapsedSeconds(),
		SizeBytes:      s.SizeBytes(),
	}
	if a := s.Finalized(); a != nil {
		d := a.DurationSeconds
		resp.DurationSeconds = &d
		resp.SizeBytes = int64(len(a.Data))
	}
	return resp
}

func (h *Handler) startCapture(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	s, err := h.captures.Start(owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, captureState(s))
}

func (h *Handler) captureSession(w http.ResponseWriter, r *http.Request) (*capture.Session, bool) {
	owner := ownerFromContext(r.Context())
	s, err := h.captures.Get(chi.URLParam(r, "id"), owner)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) appendCaptureChunk(w http.ResponseWriter, r *http.Request) {
	s, ok := h.captureSession(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChunkBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio chunk")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio chunk")
		return
	}
	if err := s.AppendChunk(data); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, captureState(s))
}

func (h *Handler) pauseCapture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.captureSession(w, r)
	if !ok {
		return
	}
	if err := s.Pause(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, captureState(s))
}

func (h *Handler) resumeCapture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.captureSession(w, r)
	if !ok {
		return
	}
	if err := s.Resume(); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, captureState(s))
}

func (h *Handler) stopCapture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.captureSession(w, r)
	if !ok {
		return
	}
	s.Stop()
	writeJSON(w, http.StatusOK, captureState(s))
}

// processCapture hands the finalized artifact to the pipeline and releases
// the session on success. A still-recording session is stopped first.
func (h *Handler) processCapture(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	s, ok := h.captureSession(w, r)
	if !ok {
		return
	}

	a := s.Stop()
	if a == nil || len(a.Data) == 0 {
		writeError(w, http.StatusBadRequest, "capture session has no audio")
		return
	}

	saved, err := h.store.Save(bytes.NewReader(a.Data))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	created, err := h.notes.ProcessArtifact(r.Context(), note.ProcessInput{
		OwnerID:         owner,
		Filename:        saved.Filename,
		DurationSeconds: a.DurationSeconds,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.captures.Release(s.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) resetCapture(w http.ResponseWriter, r *http.Request) {
	s, ok := h.captureSession(w, r)
	if !ok {
		return
	}
	s.Reset()
	h.captures.Release(s.ID)
	w.WriteHeader(http.StatusNoContent)
}
