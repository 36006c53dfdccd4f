package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/we-kode/mml.media/config"
	"github.com/we-kode/mml.media/core/catalog"
	"github.com/we-kode/mml.media/core/ingest"
	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
	"github.com/we-kode/mml.media/repository"
	"github.com/we-kode/mml.media/storage"
)

// APIHandler bundles the dependencies of all HTTP handlers.
type APIHandler struct {
	catalog   *catalog.Service
	records   repository.RecordRepository
	artists   repository.ArtistRepository
	albums    repository.AlbumRepository
	genres    repository.GenreRepository
	languages repository.LanguageRepository
	groups    repository.GroupRepository
	settings  repository.SettingsRepository
	queue     *ingest.Queue
	store     storage.Store
	hub       *Hub
	cfg       *config.Config
}

// NewAPIHandler creates the handler set.
func NewAPIHandler(
	catalogService *catalog.Service,
	records repository.RecordRepository,
	artists repository.ArtistRepository,
	albums repository.AlbumRepository,
	genres repository.GenreRepository,
	languages repository.LanguageRepository,
	groups repository.GroupRepository,
	settings repository.SettingsRepository,
	queue *ingest.Queue,
	store storage.Store,
	hub *Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		catalog:   catalogService,
		records:   records,
		artists:   artists,
		albums:    albums,
		genres:    genres,
		languages: languages,
		groups:    groups,
		settings:  settings,
		queue:     queue,
		store:     store,
		hub:       hub,
		cfg:       cfg,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to write response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// paging reads skip/take query parameters with the model defaults.
func paging(r *http.Request) (skip, take int) {
	skip = model.ListSkip
	take = model.ListTake
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v >= 0 {
		skip = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("take")); err == nil && v > 0 {
		take = v
	}
	return skip, take
}
