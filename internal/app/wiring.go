package app

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"portfolio-contact/internal/config"
	"portfolio-contact/internal/contact"
	"portfolio-contact/internal/db"
	"portfolio-contact/internal/draft"
	"portfolio-contact/internal/logger"
	"portfolio-contact/internal/notify"
	"portfolio-contact/internal/store"
)

// Clients holds the AWS clients an entrypoint may need. Tests and the dev
// server can leave any of them nil.
type Clients struct {
	DynamoDB store.DDBClient
	Bedrock  draft.BedrockClient
	SNS      notify.SNSPublisher
	SSM      config.ParameterGetter
}

func NewClients(awsCfg aws.Config) Clients {
	return Clients{
		DynamoDB: db.NewDynamoClient(awsCfg),
		Bedrock:  bedrockruntime.NewFromConfig(awsCfg),
		SNS:      sns.NewFromConfig(awsCfg),
		SSM:      ssm.NewFromConfig(awsCfg),
	}
}

// Wiring is the result of selecting collaborators from configuration.
type Wiring struct {
	Service *contact.Service
	Close   func()

	StoreKind  string
	SenderKind string
	AIEnabled  bool
}

// NewContactService picks a store, drafter and sender once per cold start.
// A missing credential disables the collaborator instead of failing.
func NewContactService(ctx context.Context, cfg *config.Config, clients Clients, log *logger.Logger) (*Wiring, error) {
	if log == nil {
		log = logger.NewNop()
	}
	w := &Wiring{Close: func() {}}

	if cfg.NeedsSSM() && clients.SSM != nil {
		if err := cfg.ResolveSecrets(ctx, clients.SSM); err != nil {
			// Without the key the SNS fallback may still apply.
			log.Error("secret resolution failed", "error", err)
		}
	}

	policy, err := contact.ParseFailurePolicy(cfg.StoreFailurePolicy)
	if err != nil {
		return nil, err
	}

	timeout := cfg.CollaboratorTimeout
	if timeout <= 0 {
		timeout = contact.DefaultTimeout
	}

	var st contact.Store
	switch cfg.StoreBackend {
	case config.StoreDynamoDB:
		if strings.TrimSpace(cfg.ContactsTable) != "" && clients.DynamoDB != nil {
			st = store.NewDynamoStore(clients.DynamoDB, cfg.ContactsTable)
			w.StoreKind = config.StoreDynamoDB
		}
	case config.StorePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) != "" {
			pool, err := db.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				log.Error("postgres store disabled", "collaborator", "store", "error", err)
				break
			}
			// The pool reconnects on later inserts, so an outage at cold
			// start only costs the rows written while it lasts.
			pg := store.NewPostgresStore(pool)
			if err := db.Ping(ctx, pool, timeout); err != nil {
				log.Warn("postgres unreachable at startup", "collaborator", "store", "error", err)
			} else if cfg.DBAutoMigrate {
				mctx, cancel := context.WithTimeout(ctx, timeout)
				if err := pg.EnsureSchema(mctx); err != nil {
					log.Warn("contacts schema not ensured", "collaborator", "store", "error", err)
				}
				cancel()
			}
			st = pg
			w.StoreKind = config.StorePostgres
			w.Close = pool.Close
		}
	}

	var dr contact.Drafter
	if strings.TrimSpace(cfg.BedrockModelID) != "" && clients.Bedrock != nil {
		dr = draft.New(
			draft.NewBedrockCompleter(clients.Bedrock, cfg.BedrockModelID),
			draft.WithMaxTokens(cfg.AIMaxTokens),
			draft.WithTemperature(cfg.AITemperature),
			draft.WithLogger(log),
		)
		w.AIEnabled = true
	}

	sender, kind := SelectSender(cfg, clients.SNS)
	w.SenderKind = kind

	log.Info("contact service wired",
		"store", w.StoreKind,
		"sender", w.SenderKind,
		"ai", w.AIEnabled,
		"policy", string(policy),
	)

	w.Service = contact.NewService(contact.Options{
		Store:   st,
		Drafter: dr,
		Sender:  sender,
		From:    cfg.NotifyFrom,
		To:      cfg.NotifyTo,
		Policy:  policy,
		Timeout: timeout,
		Log:     log,
	})
	return w, nil
}

// SelectSender prefers Resend and falls back to SNS.
func SelectSender(cfg *config.Config, snsClient notify.SNSPublisher) (contact.Sender, string) {
	if strings.TrimSpace(cfg.ResendAPIKey) != "" && strings.TrimSpace(cfg.NotifyTo) != "" {
		return notify.NewResendSender(cfg.ResendAPIKey), "resend"
	}
	if strings.TrimSpace(cfg.NotifySNSTopicArn) != "" && snsClient != nil {
		return notify.NewSNSSender(snsClient, cfg.NotifySNSTopicArn), "sns"
	}
	return nil, ""
}
