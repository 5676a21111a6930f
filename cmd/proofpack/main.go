package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/grabke213/proofpack/internal/assetcache"
	"github.com/grabke213/proofpack/internal/config"
	"github.com/grabke213/proofpack/internal/export"
	"github.com/grabke213/proofpack/internal/httpapi"
	"github.com/grabke213/proofpack/internal/persistence"
	"github.com/grabke213/proofpack/internal/session"
	"github.com/grabke213/proofpack/pkg/log"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	store, err := persistence.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		log.Fatal("Failed to open job store: %v", err)
	}
	defer store.Close()

	assets, err := assetcache.New(filepath.Join(cfg.Storage.DataDir, "assets"), cfg.Assets.Manifest)
	if err != nil {
		log.Fatal("Failed to prepare asset cache: %v", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Assets.RefreshCron, func() {
		if err := assets.Refresh(context.Background()); err != nil {
			log.Warn("Asset refresh pass failed: %v", err)
		}
	}); err != nil {
		log.Fatal("Invalid ASSET_REFRESH_CRON: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	builder, err := export.NewBuilder(export.Identity{
		AppName:  cfg.Org.AppName,
		Company:  cfg.Org.Company,
		DocTitle: cfg.Org.DocTitle,
		Version:  cfg.Org.Version,
	})
	if err != nil {
		log.Fatal("Failed to prepare export builder: %v", err)
	}

	// No platform locator is wired yet; the timeout still bounds the
	// start action once one is plugged in, and Capture degrades to no
	// fix either way.
	gpsTimeout := time.Duration(cfg.Capture.GPSTimeoutSeconds) * time.Second
	sess := session.New(store, builder, session.WithLocator(nil, gpsTimeout))
	if cfg.Org.InstallerName != "" {
		if err := sess.Apply(session.FieldEdit{Field: "installerName", Value: cfg.Org.InstallerName}); err != nil {
			log.Warn("Could not apply default installer name: %v", err)
		}
	}

	server := httpapi.NewServer(sess,
		httpapi.WithUI(cfg.Server.UIDir, cfg.Server.UIDir != ""),
		httpapi.WithAssets(assets.Handler()),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Info("proofpack listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal("HTTP server failed: %v", err)
	case sig := <-stop:
		log.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed: %v", err)
	}
}
