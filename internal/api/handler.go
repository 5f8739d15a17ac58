// Package api is the HTTP surface: routing, identity, request decoding and
// status mapping. All business rules live in the services it calls.
package api

import (
	"net/http"

	"github.com/foxseedlab/koenote/internal/account"
	"github.com/foxseedlab/koenote/internal/artifact"
	"github.com/foxseedlab/koenote/internal/capture"
	"github.com/foxseedlab/koenote/internal/note"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	notes    *note.Service
	accounts *account.Service
	captures *capture.Manager
	store    artifact.Store
}

func NewHandler(notes *note.Service, accounts *account.Service, captures *capture.Manager, store artifact.Store) *Handler {
	return &Handler{
		notes:    notes,
		accounts: accounts,
		captures: captures,
		store:    store,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.createUser)
		r.Post("/auth/login", h.login)

		r.Get("/notes/{id}", h.getNote)
		r.Delete("/notes/{id}", h.deleteNote)
		r.Get("/audio/{filename}", h.serveAudio)

		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity)
			r.Get("/notes", h.listNotes)
			r.Post("/notes/process-audio", h.processAudio)
			r.Get("/settings", h.getSettings)
			r.Put("/settings", h.updateSettings)

			r.Post("/capture", h.startCapture)
			r.Post("/capture/{id}/chunks", h.appendCaptureChunk)
			r.Post("/capture/{id}/pause", h.pauseCapture)
			r.Post("/capture/{id}/resume", h.resumeCapture)
			r.Post("/capture/{id}/stop", h.stopCapture)
			r.Post("/capture/{id}/process", h.processCapture)
			r.Delete("/capture/{id}", h.resetCapture)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
