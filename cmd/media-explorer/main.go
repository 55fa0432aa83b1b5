package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-explorer/internal/filesystem"
	"media-explorer/internal/handlers"
	"media-explorer/internal/logging"
	"media-explorer/internal/media"
	"media-explorer/internal/metrics"
	"media-explorer/internal/middleware"
	"media-explorer/internal/startup"
	"media-explorer/internal/thumbcache"
	"media-explorer/internal/workers"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxThumbnailWorkers caps the computed pool; THUMBNAIL_WORKERS may go lower.
const maxThumbnailWorkers = 16

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure Go decoders: %v", err)
		}
		defer media.ShutdownVips()
	}
	caps := media.DetectCapabilities()
	startup.LogImageInit(caps.Vips, caps.HEIFDecoder)
	startup.LogToolsInit(config.FFmpegBin, config.FFprobeBin)

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"media": config.RootDir,
		"cache": config.CacheDir,
	}))
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
		filesystem.SetObserver(metrics.NewFilesystemObserver())
	}

	resolver, err := filesystem.NewResolver(config.RootDir)
	if err != nil {
		startup.LogFatal("Root directory error: %v", err)
	}

	runner := media.NewFFmpegRunner(media.FFmpegConfig{
		FFmpegPath:  config.FFmpegBin,
		FFprobePath: config.FFprobeBin,
		Timeout:     config.ToolTimeout,
	})
	images := media.NewImageThumbnailer(caps)
	videos := media.NewVideoThumbnailer(runner)

	workerCount := workers.ForMixed(maxThumbnailWorkers, config.ThumbnailWorkers)
	limiter := workers.NewLimiter(workerCount, func(busy int) {
		metrics.ThumbnailWorkersBusy.Set(float64(busy))
	})

	cache, err := thumbcache.New(thumbcache.Config{
		Dir:             config.CacheDir,
		GenerateTimeout: config.ThumbnailTimeout,
	}, images, videos, thumbcache.WithLimiter(limiter))
	if err != nil {
		startup.LogFatal("Cache error: %v", err)
	}

	startup.LogCacheInit(cache.Dir(), workerCount, config.CacheMaxAgeDays, config.CacheMaxMB, config.JanitorInterval)
	janitor := thumbcache.NewJanitor(cache.Dir(), thumbcache.LimitsFrom(config.CacheMaxAgeDays, config.CacheMaxMB))
	janitor.Start(config.JanitorInterval)

	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(cache, time.Minute)
		collector.Start()
	}

	h := handlers.New(resolver, cache, handlers.Options{
		Previewer: images,
		Tools:     runner,
	})

	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks, config.AccessToken != "")

	srv := &http.Server{
		Addr:              config.Addr(),
		Handler:           buildHandler(router, config),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go handleShutdown(srv, janitor, collector, config.ShutdownTimeout, done)

	startup.LogServerStarted(startup.ServerConfig{
		Addr:            config.Addr(),
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Probes, version and metrics (no token required)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	if config.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Thumbnails and files
	r.HandleFunc("/thumb/{path:.+}", h.GetThumbnail).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/vthumb/{path:.+}", h.GetThumbnail).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/raw/{path:.+}", h.GetRaw).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/download/{path:.+}", h.Download).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/list", h.ListFiles).Methods(http.MethodGet)

	return r
}

// buildHandler wraps the router, innermost first: token check, CORS,
// access log, panic recovery.
func buildHandler(router *mux.Router, config *startup.Config) http.Handler {
	var handler http.Handler = router
	handler = middleware.RequireToken(middleware.DefaultAuthConfig(config.AccessToken))(handler)

	if len(config.CORSOrigins) > 0 {
		handler = gorillahandlers.CORS(
			gorillahandlers.AllowedOrigins(config.CORSOrigins),
			gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
			gorillahandlers.AllowedHeaders([]string{middleware.TokenHeader, "Range"}),
		)(handler)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(recoveryLogger{}),
		gorillahandlers.PrintRecoveryStack(logging.IsDebugEnabled()),
	)(handler)
}

// recoveryLogger routes recovered panics into the application log.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	logging.Error("%s", fmt.Sprint(v...))
}

func handleShutdown(srv *http.Server, janitor *thumbcache.Janitor, collector *metrics.Collector, timeout time.Duration, done chan<- struct{}) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping cache janitor")
	janitor.Stop()
	startup.LogShutdownStepComplete("Cache janitor stopped")

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	startup.LogShutdownComplete()
}
