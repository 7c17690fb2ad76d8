package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"portfolio-contact/internal/analytics"
	"portfolio-contact/internal/config"
	"portfolio-contact/internal/contact"
	"portfolio-contact/internal/db"
	"portfolio-contact/internal/logger"
	"portfolio-contact/internal/notify"
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

	// The digest always goes over SNS: it has no submitter to reply to.
	var sender contact.Sender
	if cfg.NotifySNSTopicArn != "" {
		sender = notify.NewSNSSender(sns.NewFromConfig(awsCfg), cfg.NotifySNSTopicArn)
	}

	h := analytics.NewDigester(athena.NewFromConfig(awsCfg), sender, cfg.Digest, log)
	lambda.Start(h.Handle)
}
