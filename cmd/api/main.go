package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/secondchances-backend/internal/auth"
	"github.com/shinyyama/secondchances-backend/internal/config"
	"github.com/shinyyama/secondchances-backend/internal/db"
	"github.com/shinyyama/secondchances-backend/internal/gcp"
	appmw "github.com/shinyyama/secondchances-backend/internal/middleware"
	"github.com/shinyyama/secondchances-backend/internal/server"
	"github.com/shinyyama/secondchances-backend/internal/service"
	"github.com/shinyyama/secondchances-backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn); err != nil {
			return err
		}
	}

	gopts, err := gcp.ClientOptions(ctx, cfg.GoogleCredentialsJSON)
	if err != nil {
		return err
	}

	var images service.ImageStore = storage.Disabled{}
	if cfg.StorageBucket != "" {
		up, err := storage.NewUploader(ctx, cfg.StorageBucket, gopts...)
		if err != nil {
			return err
		}
		defer up.Close()
		images = up
	} else {
		log.Printf("[storage] STORAGE_BUCKET not set; uploads disabled")
	}

	var tokens *auth.JWTService
	if cfg.AuthMode == config.AuthModeJWT {
		tokens = auth.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	}
	svcs := server.NewServices(conn, images, tokens, cfg.PointsPer100Yen)

	var verifier appmw.Verifier
	if tokens != nil {
		verifier = appmw.NewJWTVerifier(tokens)
	} else {
		projectID := cfg.FirebaseProjectID
		if projectID == "" {
			projectID = gcp.ProjectID(ctx, cfg.GoogleCredentialsJSON)
		}
		fv, err := appmw.NewFirebaseVerifier(ctx, projectID, svcs.Users, gopts...)
		if err != nil {
			return err
		}
		verifier = fv
	}

	srv := server.New(svcs, server.Options{
		Verifier:       verifier,
		AllowedOrigins: cfg.AllowedOrigins,
		GitSHA:         cfg.GitSHA,
		BuildTime:      cfg.BuildTime,
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s auth=%s", addr, cfg.AuthMode)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
