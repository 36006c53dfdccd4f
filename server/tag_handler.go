package server

import (
	"net/http"
)

func (h *APIHandler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	filterByGroups, clientGroups := scope(r)
	skip, take := paging(r)
	artists, err := h.artists.List(r.URL.Query().Get("filter"), filterByGroups, clientGroups, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list artists")
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *APIHandler) ListAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	filterByGroups, clientGroups := scope(r)
	skip, take := paging(r)
	albums, err := h.albums.List(r.URL.Query().Get("filter"), filterByGroups, clientGroups, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list albums")
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *APIHandler) ListGenresHandler(w http.ResponseWriter, r *http.Request) {
	filterByGroups, clientGroups := scope(r)
	skip, take := paging(r)
	genres, err := h.genres.List(r.URL.Query().Get("filter"), filterByGroups, clientGroups, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list genres")
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

// ListCommonGenresHandler returns the genres most present in the client's
// visible records.
func (h *APIHandler) ListCommonGenresHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	var clientGroups []string
	if claims != nil {
		clientGroups = claims.Groups
	}

	genres, err := h.genres.ListCommon(clientGroups)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list common genres")
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *APIHandler) ListLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	filterByGroups, clientGroups := scope(r)
	skip, take := paging(r)
	languages, err := h.languages.List(r.URL.Query().Get("filter"), filterByGroups, clientGroups, skip, take)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list languages")
		return
	}
	writeJSON(w, http.StatusOK, languages)
}
