// damoa-sync runs one aggregate, persist and reconcile pass and exits. It is
// the cron entry point; the REST server in cmd/damoa-server exposes the same
// operations on demand.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/damoa-dev/damoa/internal/app"
	"github.com/damoa-dev/damoa/internal/models"
)

func main() {
	a, err := app.NewApp(os.Getenv("DAMOA_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	p, res, err := a.RunSync(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			a.Logger.Warn().Msg("no holdings or cash collected, nothing persisted")
			return
		}
		a.Logger.Error().Err(err).Msg("sync run failed")
		os.Exit(1)
	}

	a.Logger.Info().
		Int("rows", len(p.Rows)).
		Float64("total_value", p.TotalValue).
		Int("notes_checked", res.Checked).
		Int("notes_updated", res.Updated).
		Dur("elapsed", time.Since(start)).
		Msg("sync run complete")
}
