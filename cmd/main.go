package main

import (
	"bhrc/backend/internal/api"
	"bhrc/backend/internal/api/handler"
	"bhrc/backend/internal/app"
	"bhrc/backend/internal/config"
	"bhrc/backend/internal/logging"
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "error", err)
	}

	configPath := flag.String("config", "", "path to a YAML config file (default "+config.DefaultPath+" if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting BHRC backend", "addr", cfg.HTTPAddr)
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("failed to close storage", "error", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(handler.Services{
		Auth:       a.Auth,
		Policy:     a.Policy,
		Complaints: a.Complaints,
		Events:     a.Events,
		Members:    a.Members,
		Donations:  a.Donations,
		Gallery:    a.Gallery,
		Newsletter: a.Newsletter,
		Store:      a.Storage,
	})
	h.SecureCookies = strings.HasPrefix(cfg.SiteURL, "https://")

	router, err := api.NewRouter(h, api.Options{
		UploadRoot:         cfg.UploadRoot,
		TrustedProxies:     cfg.TrustedProxies,
		MaxMultipartMemory: 8 << 20,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		// A complaint form carries up to five documents besides its fields.
		Handler:           http.MaxBytesHandler(router, int64(config.MaxComplaintDocuments+1)*cfg.MaxUploadBytes),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("shutting down http server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
