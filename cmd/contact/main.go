package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"portfolio-contact/internal/app"
	"portfolio-contact/internal/config"
	"portfolio-contact/internal/db"
	"portfolio-contact/internal/handlers"
	"portfolio-contact/internal/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}

	awsCfg, err := db.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("load aws config", "error", err)
	}
	h, closeFn, err := setup(ctx, cfg, app.NewClients(awsCfg), log)
	if err != nil {
		log.Fatal("wire contact service", "error", err)
	}
	defer log.Sync()
	defer closeFn()

	lambda.Start(h.Handle)
}

// setup wires the handler and returns the cleanup for its resources.
func setup(ctx context.Context, cfg *config.Config, clients app.Clients, log *logger.Logger) (*handlers.ContactHandler, func(), error) {
	w, err := app.NewContactService(ctx, cfg, clients, log)
	if err != nil {
		return nil, nil, err
	}
	return handlers.NewContactHandler(w.Service, cfg.DebugDiagnostics, log), w.Close, nil
}
