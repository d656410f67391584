package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"frameline/cache"
	"frameline/config"
	"frameline/core/ingest"
	"frameline/core/timeline"
	"frameline/db"
	"frameline/logger"
	"frameline/model"
	"frameline/repository"
	"frameline/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until a shutdown
// signal arrives.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.Track{}, &model.Keyframe{}); err != nil {
		logger.Fatal("failed to migrate models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	// Media resolution is optional: without MinIO the engine still runs,
	// durations just fall back to metadata and defaults.
	var resolver timeline.MediaResolver
	if cfg.MinioEndpoint != "" {
		mediaStore, err := storage.NewMediaStore(cfg)
		if err != nil {
			logger.Fatal("failed to initialize media storage", logger.ErrorField(err))
		}
		resolver = mediaStore
	} else {
		logger.Warn("MINIO_ENDPOINT not set, intrinsic media durations unavailable")
	}

	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	keyframeRepo := repository.NewGormKeyframeRepository(db.GormDB)

	store := timeline.NewStore(trackRepo, keyframeRepo, resolver, cfg.ProjectDurationMs)
	timelineCache := cache.NewTimelineCache(db.RedisClient)
	store.SetRefresher(timelineCache)

	playhead := timeline.NewPlaybackPosition(cfg.ProjectDurationMs)
	provisioner := timeline.NewProvisioner(store, resolver, cfg.DefaultClipMs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DropSpoolDir != "" {
		watcher := ingest.NewWatcher(cfg.DropSpoolDir, provisioner)
		go func() {
			if err := watcher.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("drop spool watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	handler := NewTimelineHandler(store, provisioner, playhead, timelineCache, cfg)
	wsHandler := NewWSHandler(store, playhead)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/healthz", handler.HealthHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/timeline/tracks", handler.ListTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/tracks", handler.AuthMiddleware(handler.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/timeline/tracks/{id}/keyframes", handler.ListKeyframesHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/place", handler.AuthMiddleware(handler.PlaceMediaHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/timeline/keyframes/{id}/move", handler.AuthMiddleware(handler.MoveKeyframeHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/timeline/keyframes/{id}/resize", handler.AuthMiddleware(handler.ResizeKeyframeHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/timeline/keyframes/{id}", handler.AuthMiddleware(handler.DeleteKeyframeHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/timeline/preview", handler.PreviewHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/playhead", handler.GetPlayheadHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/timeline/seek", handler.SeekHandler).Methods(http.MethodPost)

	router.HandleFunc("/ws/timeline", wsHandler.ServeTimeline).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", logger.ErrorField(err))
	}
}

// corsMiddleware allows the hosting web app to call the API from another
// origin during development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
