package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"portfolio-contact/internal/config"
	"portfolio-contact/internal/db"
	"portfolio-contact/internal/export"
	"portfolio-contact/internal/logger"
	"portfolio-contact/internal/store"
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
	defer log.Sync()

	var gc export.GlueClient
	if cfg.Export.GlueDatabase != "" && cfg.Export.GlueTable != "" {
		gc = glue.NewFromConfig(awsCfg)
	}

	src := store.NewDynamoStore(db.NewDynamoClient(awsCfg), cfg.ContactsTable)
	h := export.NewExporter(src, s3.NewFromConfig(awsCfg), gc, cfg.Export, log)
	lambda.Start(h.Handle)
}
