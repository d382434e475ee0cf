package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gamedex/gamedex/pkg/config"
	"github.com/gamedex/gamedex/pkg/database"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/migrations"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type options struct {
	Sources []string `short:"s" long:"source" description:"A dataset URL to import (repeatable, overrides the configured sources)"`
}

// populate runs the bulk import once without starting the HTTP server.
func main() {
	log := logger.New()
	ctx := log.WithContext(context.Background())

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if err := run(ctx, opts); err != nil {
		log.Err(err).Fatal("populate error")
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.New()
	if err != nil {
		return errors.WithStack(err)
	}
	if len(opts.Sources) > 0 {
		cfg.ImportSourceURLs = opts.Sources
	}

	db, err := database.New(cfg)
	if err != nil {
		return errors.WithStack(err)
	}
	defer db.Close()

	if _, err := migrations.BringUpToDate(ctx, db); err != nil {
		return errors.WithStack(err)
	}

	importer := games.NewImporter(games.NewService(db), &http.Client{Timeout: cfg.ImportTimeout}, cfg.ImportSourceURLs, cfg.ImportTimeout)
	count, err := importer.Import(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Printf("Imported %d games from %d sources\n", count, len(cfg.ImportSourceURLs))
	return nil
}
