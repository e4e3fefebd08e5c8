// Package api provides the HTTP API for the application
package api

import (
	"bioreactor/internal/platform/config"
	perr "bioreactor/internal/platform/errors"
	"bioreactor/internal/platform/logger"
	phttp "bioreactor/internal/platform/net/http"
	"bioreactor/internal/platform/store"

	"bioreactor/internal/modkit"
	"bioreactor/internal/modkit/httpkit"
	"bioreactor/internal/modkit/module"
	"bioreactor/internal/modkit/swaggerkit"

	advisormod "bioreactor/internal/services/advisor/module"
	metamod "bioreactor/internal/services/api/meta/module"
	obsdomain "bioreactor/internal/services/observations/domain"
	obsmod "bioreactor/internal/services/observations/module"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceName is reported by the meta endpoints
const ServiceName = "bioreactor-api"

// Options are the API options
type Options struct {
	Config         config.Conf // root; the API itself reads CORE_API_*
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool // /metrics in the prometheus text format
}

// Mount composes the modules and mounts them under /api/v1.
// Without a configured observations store only inline advice and meta are served
func Mount(r phttp.Router, opt Options) error {
	deps := modkit.FromStore(opt.Config, opt.Store)
	if opt.Logger != nil {
		deps.Log = opt.Logger
	}
	log := deps.Logger()

	mods := []module.Module{}

	// the observations module owns the ReaderPort the advisor serves stored batches from
	var reader obsdomain.ReaderPort
	obs, err := obsmod.New(deps, obsmod.FromConfig(opt.Config))
	switch {
	case err == nil:
		reader = module.MustPortsOf[obsmod.Ports](obs).Reader
		mods = append(mods, obs)
	case perr.IsCode(err, perr.ErrorCodeUnavailable):
		log.Warn().Err(err).Msg("observations store disabled; stored batch routes answer 503")
	default:
		return err
	}

	adv, err := advisormod.New(deps, modkit.WithPorts(reader))
	if err != nil {
		return err
	}
	engine := module.MustPortsOf[advisormod.Ports](adv).Engine

	mods = append(mods,
		metamod.New(deps, ServiceName, modkit.WithPorts(engine)),
		adv,
	)

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(opt.Config.Prefix("CORE_API_")), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
		if opt.EnableMetrics {
			r.Handle("/metrics", promhttp.Handler())
		}

		for _, m := range mods {
			// ports are registered under the module name for cross-module lookups
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
	return nil
}
