// Command bioreactor-synth seeds the observation store with synthetic fed-batch runs
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"bioreactor/internal/core/synth"
	"bioreactor/internal/modkit"
	"bioreactor/internal/modkit/repokit"
	"bioreactor/internal/platform/config"
	"bioreactor/internal/platform/logger"
	"bioreactor/internal/platform/store"

	obsmod "bioreactor/internal/services/observations/module"
)

func main() {
	def := synth.DefaultOptions()
	var (
		fBatches = flag.Int("batches", def.Batches, "number of batches")
		fRows    = flag.Int("rows", def.RowsPerBatch, "time points per batch")
		fSeed    = flag.Uint64("seed", def.Seed, "generator seed; equal seeds give equal data")
		fHorizon = flag.Float64("horizon", def.HorizonHr, "last time point in hours")
		fStdout  = flag.Bool("stdout", false, "print rows as JSON lines instead of writing to the store")
		fSchema  = flag.Bool("ensure-schema", true, "create the observations table when missing")
	)
	flag.Parse()

	l := logger.Named("synth")
	rows, err := synth.Generate(synth.Options{
		Batches:      *fBatches,
		RowsPerBatch: *fRows,
		Seed:         *fSeed,
		HorizonHr:    *fHorizon,
	})
	if err != nil {
		l.Panic().Err(err).Msg("generate")
	}

	if *fStdout {
		enc := json.NewEncoder(os.Stdout)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				l.Panic().Err(err).Msg("encode")
			}
		}
		return
	}

	ctx := context.Background()
	root := config.New()
	st, err := store.Open(ctx, store.FromConfig(root, "synth"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	deps := modkit.FromStore(root, st)
	mod, err := obsmod.New(deps, obsmod.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("observations module")
	}
	svc := mod.Service()

	if *fSchema {
		if err := svc.EnsureSchema(ctx); err != nil {
			l.Panic().Err(err).Msg("ensure schema")
		}
	}

	// one write per batch keeps each transaction bounded
	start := time.Now()
	written := 0
	for i := 0; i < len(rows); i += *fRows {
		chunk := rows[i:min(i+*fRows, len(rows))]
		n, err := svc.WriteBatch(ctx, synth.Observations(chunk), synth.FeedRates(chunk))
		if err != nil {
			l.Panic().Err(err).Str("batch_id", chunk[0].BatchID).Msg("write batch")
		}
		written += n
	}
	l.Info().
		Int("batches", *fBatches).
		Int("rows", written).
		Uint64("seed", *fSeed).
		Dur("took", time.Since(start)).
		Msg("seeded observations")
}
