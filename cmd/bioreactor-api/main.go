// @title         Bioreactor API
// @version       0.1.0
// @description   Anomaly flags and feed-rate recommendations for fed-batch runs
// @BasePath      /api/v1

//go:generate swag init --instanceName api -g main.go -d ./,../../internal/services -o ../../internal/services/api/docs --parseInternal

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bioreactor/internal/modkit/repokit"
	"bioreactor/internal/platform/config"
	"bioreactor/internal/platform/logger"
	phttp "bioreactor/internal/platform/net/http"
	"bioreactor/internal/platform/store"

	"bioreactor/internal/services/api"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// backends are optional; each is enabled by its SERVICE_*_DBURL
	st, err := store.Open(ctx, store.FromConfig(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	err = api.Mount(srv.Router(), api.Options{
		Config:         root,
		Store:          st,
		Logger:         l,
		EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
		EnableProfiler: apiCfg.MayBool("PROFILER", false),
		EnableMetrics:  apiCfg.MayBool("METRICS", true),
	})
	if err != nil {
		l.Panic().Err(err).Msg("api.Mount failed")
	}

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
