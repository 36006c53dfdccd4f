package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/we-kode/mml.media/config"
	"github.com/we-kode/mml.media/core/audio"
	"github.com/we-kode/mml.media/core/catalog"
	"github.com/we-kode/mml.media/core/ingest"
	"github.com/we-kode/mml.media/core/tags"
	"github.com/we-kode/mml.media/db"
	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/repository"
	"github.com/we-kode/mml.media/storage"
)

// Start wires the whole service and blocks until shutdown.
func Start(cfg *config.Config) {
	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("failed to migrate schema", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	ensureDirExists(cfg.UploadDir)
	ensureDirExists(cfg.ImportDir)

	store, err := storage.NewStore(cfg)
	if err != nil {
		logger.Fatal("failed to open content store", logger.ErrorField(err))
	}

	recordRepo := repository.NewRecordRepository(db.GormDB)
	artistRepo := repository.NewArtistRepository(db.GormDB)
	albumRepo := repository.NewAlbumRepository(db.GormDB)
	genreRepo := repository.NewGenreRepository(db.GormDB)
	languageRepo := repository.NewLanguageRepository(db.GormDB)
	groupRepo := repository.NewGroupRepository(db.GormDB)
	settingsRepo := repository.NewSettingsRepository(db.GormDB)

	catalogService := catalog.NewService(db.GormDB, recordRepo, artistRepo, albumRepo, genreRepo, languageRepo, groupRepo, store)

	hub := NewHub()
	queue := ingest.NewQueue(db.RedisClient, cfg.IndexWorkers)
	indexer := ingest.NewIndexer(
		cfg.UploadDir,
		catalogService,
		recordRepo,
		genreRepo,
		settingsRepo,
		tags.NewReader(),
		audio.NewFFmpegTranscoder(cfg.FFmpegPath),
		store,
		hub,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go queue.Consume(ctx, indexer.Handle)
	if cfg.ImportDir != "" {
		go func() {
			watcher := ingest.NewWatcher(cfg.ImportDir, cfg.UploadDir, queue)
			if err := watcher.Run(ctx); err != nil {
				logger.Error("import watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	apiHandler := NewAPIHandler(
		catalogService,
		recordRepo,
		artistRepo,
		albumRepo,
		genreRepo,
		languageRepo,
		groupRepo,
		settingsRepo,
		queue,
		store,
		hub,
		cfg,
	)

	router := newRouter(apiHandler, hub)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // streaming responses
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("media service listening", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}

func newRouter(h *APIHandler, hub *Hub) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(h.AppKeyMiddleware)

	api := router.PathPrefix("/api/media").Subrouter()

	// Catalog query surface.
	api.HandleFunc("/records/list", h.AuthMiddleware(h.ListRecordsHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/folders", h.AuthMiddleware(h.ListFoldersHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/next", h.AuthMiddleware(h.NextRecordHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/previous", h.AuthMiddleware(h.PreviousRecordHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/{id}", h.AuthMiddleware(h.GetRecordHandler)).Methods(http.MethodGet)
	api.HandleFunc("/stream/{id}", h.AuthMiddleware(h.StreamRecordHandler)).Methods(http.MethodGet)

	// Tag lists.
	api.HandleFunc("/artists", h.AuthMiddleware(h.ListArtistsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/albums", h.AuthMiddleware(h.ListAlbumsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/genres", h.AuthMiddleware(h.ListGenresHandler)).Methods(http.MethodGet)
	api.HandleFunc("/genres/common", h.AuthMiddleware(h.ListCommonGenresHandler)).Methods(http.MethodGet)
	api.HandleFunc("/languages", h.AuthMiddleware(h.ListLanguagesHandler)).Methods(http.MethodGet)

	// Administration.
	api.HandleFunc("/upload", h.AdminMiddleware(h.UploadRecordHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records", h.AdminMiddleware(h.UpdateRecordHandler)).Methods(http.MethodPut)
	api.HandleFunc("/records/{id}", h.AdminMiddleware(h.DeleteRecordHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/records/deleteFolders", h.AdminMiddleware(h.DeleteFoldersHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/assign", h.AdminMiddleware(h.AssignRecordsHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/assignFolders", h.AdminMiddleware(h.AssignFoldersHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/lock", h.AdminMiddleware(h.LockRecordsHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/lockFolders", h.AdminMiddleware(h.LockFoldersHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/assignedGroups", h.AdminMiddleware(h.AssignedGroupsHandler)).Methods(http.MethodPost)
	api.HandleFunc("/records/assignedFolderGroups", h.AdminMiddleware(h.AssignedFolderGroupsHandler)).Methods(http.MethodPost)

	api.HandleFunc("/groups", h.AdminMiddleware(h.ListGroupsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/groups", h.AdminMiddleware(h.CreateGroupHandler)).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}", h.AdminMiddleware(h.GetGroupHandler)).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", h.AdminMiddleware(h.UpdateGroupHandler)).Methods(http.MethodPut)
	api.HandleFunc("/groups/{id}", h.AdminMiddleware(h.DeleteGroupHandler)).Methods(http.MethodDelete)

	api.HandleFunc("/settings/compression", h.AdminMiddleware(h.GetCompressionRateHandler)).Methods(http.MethodGet)
	api.HandleFunc("/settings/compression", h.AdminMiddleware(h.SetCompressionRateHandler)).Methods(http.MethodPost)
	api.HandleFunc("/bitrates", h.AdminMiddleware(h.ListBitratesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/bitrates", h.AdminMiddleware(h.UpdateBitratesHandler)).Methods(http.MethodPost)
	api.HandleFunc("/bitrates/{id}", h.AdminMiddleware(h.DeleteBitrateHandler)).Methods(http.MethodDelete)

	api.Handle("/notifications", hub).Methods(http.MethodGet)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range, App-Key")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(dir string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Fatal("failed to create directory",
			logger.String("dir", dir),
			logger.ErrorField(err))
	}
}
