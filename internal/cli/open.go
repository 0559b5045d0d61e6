package cli

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/bootstrap"
	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/snapshot"
)

// OpenBackend builds a planner over the file snapshot store in flags.Dir.
// Model and currency settings come from the environment and .env files as
// for the server. Events are not published.
func OpenBackend(ctx context.Context, flags GlobalFlags, stderr io.Writer) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := zerolog.WarnLevel
	if flags.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()

	store, err := snapshot.NewFileStore(flags.Dir)
	if err != nil {
		return nil, err
	}

	cfg.Images.Enabled = cfg.Images.Enabled && flags.Images
	images, err := bootstrap.NewImages(cfg.Images, nil, logger)
	if err != nil {
		return nil, err
	}

	service, err := bootstrap.NewPlanner(cfg, bootstrap.PlannerDeps{
		Store:  snapshot.NewQuotaStore(store, cfg.Snapshot.QuotaBytes),
		Images: images,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return &Backend{
		Planner: service,
		Rates:   bootstrap.NewCurrency(cfg.Currency, nil, logger),
	}, nil
}
