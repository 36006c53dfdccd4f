package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/we-kode/mml.media/repository"
)

// StreamRecordHandler serves the stored audio bytes of one record with
// range support. Access follows the same group visibility as the catalog.
func (h *APIHandler) StreamRecordHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.canAccess(w, r, id) {
		return
	}

	record, err := h.catalog.Get(id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}

	object, _, err := h.store.Open(r.Context(), record.Checksum)
	if err != nil {
		writeError(w, http.StatusNotFound, "stored file not found")
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", record.MimeType)
	http.ServeContent(w, r, record.Checksum, record.UpdatedAt, object)
}
