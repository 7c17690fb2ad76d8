package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"portfolio-contact/internal/app"
	"portfolio-contact/internal/config"
	"portfolio-contact/internal/db"
	"portfolio-contact/internal/handlers"
	"portfolio-contact/internal/httpapi"
	"portfolio-contact/internal/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}

	var clients app.Clients
	if awsCfg, err := db.LoadAWSConfig(context.Background()); err != nil {
		log.Warn("aws config unavailable; AWS collaborators disabled", "error", err)
	} else {
		clients = app.NewClients(awsCfg)
	}

	w, err := app.NewContactService(context.Background(), cfg, clients, log)
	if err != nil {
		log.Fatal("wire contact service", "error", err)
	}
	defer log.Sync()
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Contact: handlers.NewContactHandler(w.Service, cfg.DebugDiagnostics, log),
		Log:     log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("dev server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}
