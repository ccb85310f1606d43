package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"

	"streamdex/config"
	"streamdex/handlers"
	"streamdex/services/cache"
	"streamdex/services/catalog"
	"streamdex/services/feed"
	"streamdex/services/metadata"
	"streamdex/services/recommend"
	"streamdex/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] configuration error: %v", err)
	}
	if cfg == nil {
		// Help was requested and printed.
		return
	}

	if cfg.LogFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		})
	}

	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	log.Printf("[main] streamdex %s starting", cfg.Version)
	if cfg.TMDBAPIKey == "" {
		log.Printf("[main] TMDB_API_KEY not set; metadata resolution is disabled and catalogs will be empty")
	}
	if cfg.TraktClientID == "" {
		log.Printf("[main] TRAKT_CLIENT_ID not set; the Trakt catalog will be empty")
	}

	osFs := afero.NewOsFs()
	if err := handlers.WriteDefaultManifest(osFs, cfg.ManifestPath); err != nil {
		log.Printf("[main] could not seed manifest file: %v", err)
	}

	responseCache := cache.New(cfg.CacheTTL)
	ingestor := feed.NewIngestor(cfg.FeedURL, nil)
	resolver := metadata.NewResolver(cfg.TMDBAPIKey, nil)
	trakt := recommend.NewClient(cfg.TraktClientID, nil)
	builder := catalog.NewBuilder(responseCache, ingestor, resolver, trakt)

	manifest := handlers.NewManifestProvider(osFs, cfg.ManifestPath)
	addon := handlers.NewAddonHandler(manifest, builder, resolver)

	router := utils.NewRouter()
	addon.Register(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("[main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}
