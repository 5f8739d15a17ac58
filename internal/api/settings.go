package api

import (
	"encoding/json"
	"net/http"

	"github.com/foxseedlab/koenote/internal/repository"
)

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	settings, err := h.accounts.GetSettings(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// updateSettingsRequest uses pointers so an omitted field keeps its stored
// value; the PUT is an upsert-merge, not a replace.
type updateSettingsRequest struct {
	OutputLanguage        *string                       `json:"outputLanguage"`
	TranscriptionModel    *string                       `json:"transcriptionModel"`
	AudioQuality          *repository.AudioQuality      `json:"audioQuality"`
	NoteOrganizationStyle *repository.OrganizationStyle `json:"noteOrganizationStyle"`
	KeepRawAudio          *bool                         `json:"keepRawAudio"`
	DataRetention         *repository.DataRetention     `json:"dataRetention"`
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	settings, err := h.accounts.UpdateSettings(r.Context(), owner, repository.UpdateSettingsInput{
		OutputLanguage:        req.OutputLanguage,
		TranscriptionModel:    req.TranscriptionModel,
		AudioQuality:          req.AudioQuality,
		NoteOrganizationStyle: req.NoteOrganizationStyle,
		KeepRawAudio:          req.KeepRawAudio,
		DataRetention:         req.DataRetention,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
