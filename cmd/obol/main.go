package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okeanos/obol/internal/database"
	"github.com/okeanos/obol/internal/family"
	"github.com/okeanos/obol/internal/logging"
	"github.com/okeanos/obol/internal/notify"
	"github.com/okeanos/obol/internal/remote"
	"github.com/okeanos/obol/internal/server"
	"github.com/okeanos/obol/internal/store"
	"github.com/okeanos/obol/internal/syncer"
)

func main() {
	logger := logging.Setup(os.Getenv("OBOL_LOG_LEVEL"), os.Getenv("OBOL_LOG_FILE"))

	port := os.Getenv("OBOL_PORT")
	if port == "" {
		port = "8080"
	}
	dbPath := os.Getenv("OBOL_DB_PATH")
	if dbPath == "" {
		dbPath = "obol.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	recordStore := store.NewRecordStore(db)
	appState := store.NewAppStateStore(db)

	hub := notify.NewHub(logger.With("component", "notify"))

	remoteCfg := remote.Config{
		Endpoint:  os.Getenv("OBOL_S3_ENDPOINT"),
		Bucket:    os.Getenv("OBOL_S3_BUCKET"),
		Region:    os.Getenv("OBOL_S3_REGION"),
		AccessKey: os.Getenv("OBOL_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("OBOL_S3_SECRET_KEY"),
	}
	remoteStore := remote.New(remoteCfg, func(connected bool) {
		if err := appState.SetConnectivity(connected); err != nil {
			logger.Warn("persist connectivity", "error", err)
		}
	}, logger.With("component", "remote"))

	familyID, err := appState.ActiveFamilyID()
	if err != nil {
		logger.Error("read active family", "error", err)
		os.Exit(1)
	}
	if familyID == "" {
		familyID = os.Getenv("OBOL_FAMILY_ID")
	}
	if familyID == "" {
		familyID = "default"
	}

	svc := family.NewService(familyID, recordStore, appState, remoteStore, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Init(ctx, false); err != nil {
		logger.Error("failed to initialize family state", "error", err)
		os.Exit(1)
	}
	if err := appState.SetActiveFamilyID(svc.FamilyID()); err != nil {
		logger.Warn("persist active family", "error", err)
	}

	sched := syncer.New(svc, logger.With("component", "syncer"))
	sched.Start(ctx)
	defer sched.Stop()

	srv := server.New(svc, sched, appState, hub, logger)

	// Expired rate-limit windows are swept in the background.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Obol running at http://localhost:%s (family %s)\n", port, svc.FamilyID())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
