package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"image-viewer/internal/database"
	"image-viewer/internal/fetch"
	"image-viewer/internal/filesystem"
	"image-viewer/internal/item"
	"image-viewer/internal/logging"
	"image-viewer/internal/media"
	"image-viewer/internal/metrics"
	"image-viewer/internal/middleware"
	"image-viewer/internal/pipeline"
	"image-viewer/internal/startup"
	"image-viewer/internal/viewer"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"
)

const metricsInterval = 5 * time.Second

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig(os.Args[1:])
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	if len(config.Args) == 0 {
		startup.LogFatal("Nothing to view: pass files, directories or URLs as arguments")
	}

	build := startup.GetBuildInfo()
	metrics.InitializeMetrics()
	metrics.SetAppInfo(build.Version, build.Commit, build.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"cache": config.CacheDir,
		"temp":  config.TempDir,
	}))

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure Go decoders: %v", err)
		}
	}

	// Thumbnail index
	var index *database.ThumbnailIndex
	if config.ThumbnailsEnabled {
		dbStart := time.Now()
		index, err = database.New(context.Background(), config.DatabasePath)
		if err != nil {
			logging.Warn("Thumbnail index unavailable, caching disabled: %v", err)
		} else {
			startup.LogDatabaseInit(config.DatabasePath, time.Since(dbStart))
		}
	}
	startup.LogThumbnailInit(index != nil, config.ThumbSide)

	var thumbIndex media.Index
	if index != nil {
		thumbIndex = index
	}
	thumbs := media.NewThumbnailGenerator(config.CacheDir, config.ThumbSide, true, thumbIndex)

	if slices.Contains(config.Args, item.StdinPath) && term.IsTerminal(int(os.Stdin.Fd())) {
		logging.Warn("Reading an image from standard input, which is a terminal")
	}

	session := viewer.NewSession(config.ViewMode, thumbs)
	fetcher := fetch.NewRemoteFetcher(fetch.FetcherConfig{
		Helper:       config.FetchHelper,
		TempDir:      config.TempDir,
		PollInterval: config.FetchPollInterval,
		KillWait:     config.FetchKillWait,
		Stdin:        os.Stdin,
	})

	pipeConfig := pipeline.DefaultConfig()
	pipeConfig.Walker.Recursive = config.Recursive
	pipeConfig.Walker.Levels = config.Levels
	pipeConfig.Coordinator.Workers = config.FetchWorkers

	startup.LogPipelineInit(len(config.Args), config.FetchWorkers, config.Recursive, config.Levels)
	p := pipeline.New(pipeConfig, pipeline.Deps{
		Fetcher: fetcher,
		Thumbs:  thumbs,
		Viewer:  session,
	})

	collector := metrics.NewCollector(p, metricsInterval)
	collector.Start()

	var srv *http.Server
	if config.MetricsEnabled {
		router := setupRouter(p)
		startup.LogHTTPRoutes(router)
		srv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           middleware.Logger(middleware.DefaultLoggingConfig())(router),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if config.ViewTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, config.ViewTimeout)
		defer cancel()
	}
	go handleSignals(ctx, p)

	startup.LogServerStarted(startup.ServerConfig{
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		Mode:            config.ViewMode.String(),
		StartupDuration: time.Since(startTime),
	})

	runStart := time.Now()
	err = p.Run(ctx, config.Args)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		startup.LogShutdownInitiated("view timeout reached")
	case err != nil:
		startup.LogShutdownInitiated(err.Error())
	default:
		startup.LogShutdownInitiated("all images loaded")
	}
	startup.LogPipelineFinished(uint(session.Done()), session.Total(), time.Since(runStart))

	shutdown(p, collector, srv, index)
}

// handleSignals stops the pipeline on SIGINT or SIGTERM.
func handleSignals(ctx context.Context, p *pipeline.Pipeline) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logging.Info("Received %s, stopping", sig)
		p.Stop()
	case <-ctx.Done():
	}
}

func shutdown(p *pipeline.Pipeline, collector *metrics.Collector, srv *http.Server, index *database.ThumbnailIndex) {
	startup.LogShutdownStep("Removing temporary files")
	if err := p.Close(); err != nil {
		logging.Warn("Cleanup error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Temporary files removed")
	}

	collector.Stop()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		startup.LogShutdownStep("Shutting down metrics server")
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if index != nil {
		startup.LogShutdownStep("Closing thumbnail index")
		if err := index.Close(); err != nil {
			logging.Warn("Thumbnail index close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Thumbnail index closed")
		}
	}

	media.ShutdownVips()
	startup.LogShutdownComplete()
}

// statusSource is the part of the pipeline the status server reads.
type statusSource interface {
	Status() pipeline.Status
}

type statusResponse struct {
	Build    startup.BuildInfo `json:"build"`
	Pipeline pipeline.Status   `json:"pipeline"`
}

func setupRouter(src statusSource) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics())
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthCheck).Methods(http.MethodGet)
	r.HandleFunc("/status", statusHandler(src)).Methods(http.MethodGet)
	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func statusHandler(src statusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := statusResponse{
			Build:    startup.GetBuildInfo(),
			Pipeline: src.Status(),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logging.Warn("Failed to encode status: %v", err)
		}
	}
}
