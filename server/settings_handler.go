package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/we-kode/mml.media/model"
)

type compressionRequest struct {
	Bitrate int `json:"bitrate"` // kbps, 0 disables global compression
}

// GetCompressionRateHandler returns the global compression bitrate applied
// to ingests without a genre policy.
func (h *APIHandler) GetCompressionRateHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := h.settings.Get(model.SettingCompressionRate, "0")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load compression rate")
		return
	}
	bitrate, _ := strconv.Atoi(raw)
	writeJSON(w, http.StatusOK, compressionRequest{Bitrate: bitrate})
}

func (h *APIHandler) SetCompressionRateHandler(w http.ResponseWriter, r *http.Request) {
	var req compressionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Bitrate < 0 {
		writeError(w, http.StatusBadRequest, "bitrate must not be negative")
		return
	}

	if err := h.settings.Save(model.SettingCompressionRate, strconv.Itoa(req.Bitrate)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save compression rate")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) ListBitratesHandler(w http.ResponseWriter, r *http.Request) {
	bitrates, err := h.genres.Bitrates()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list bitrates")
		return
	}
	writeJSON(w, http.StatusOK, bitrates)
}

func (h *APIHandler) UpdateBitratesHandler(w http.ResponseWriter, r *http.Request) {
	var bitrates []model.GenreBitrate
	if !decodeBody(w, r, &bitrates) {
		return
	}

	if err := h.genres.UpdateBitrates(bitrates); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update bitrates")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (h *APIHandler) DeleteBitrateHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.genres.DeleteBitrate(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete bitrate")
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
