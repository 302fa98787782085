package main

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hoa-onboard/internal/classify"
	"github.com/sells-group/hoa-onboard/internal/mail"
	"github.com/sells-group/hoa-onboard/internal/store"
	"github.com/sells-group/hoa-onboard/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "hoa.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore validates the store settings, opens the store, and applies the
// schema. The caller closes it.
func openStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newMailService(st store.Store) *mail.Service {
	pm := cfg.Postmark
	sender := mail.NewSender(mail.SenderConfig{
		Token:     pm.Token,
		BaseURL:   pm.BaseURL,
		From:      pm.FromEmail,
		Timeout:   pm.Timeout(),
		RateLimit: pm.RateLimit,
	})
	composer := mail.NewComposer(pm.FromEmail, cfg.Team.Name)
	return mail.NewService(st, composer, sender, mail.ServiceConfig{
		DemoEmail:      pm.DemoEmail,
		InboundAddress: pm.InboundAddress,
	})
}

// newProcessor returns nil when no LLM key is configured.
func newProcessor(st store.Store) *classify.Processor {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	c := classify.New(anthropic.NewClient(cfg.Anthropic.Key), classify.Config{
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Timeout:   cfg.Anthropic.Timeout(),
		Team:      classify.Team{Name: cfg.Team.Name, Email: cfg.Team.Email},
	})
	return classify.NewProcessor(st, c)
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}
