// Package module wires the observations store into the API as a port owning module
package module

import (
	modkit "bioreactor/internal/modkit"
	"bioreactor/internal/modkit/httpkit"
	perr "bioreactor/internal/platform/errors"
	str "bioreactor/internal/platform/strings"
	"bioreactor/internal/services/observations/domain"
	"bioreactor/internal/services/observations/repo"
	"bioreactor/internal/services/observations/service"
)

// Ports are what other modules may pull from this one
type Ports struct {
	Reader domain.ReaderPort
	Writer domain.WriterPort
}

// Module owns the observations service; it mounts no routes
type Module struct {
	name  string
	svc   *service.Svc
	ports Ports
}

// New builds the module over the backend named in opt; the backend's store must be configured
func New(deps modkit.Deps, opt Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build([]modkit.Option{modkit.WithName("observations")}, opts...)

	backend, err := NewBackend(deps, opt)
	if err != nil {
		return nil, err
	}
	svc := service.New(backend, service.Options{HardLimit: opt.HardLimit})
	deps.Logger().Info().Str("backend", backend.Name()).Int("hard_limit", opt.HardLimit).Msg("observations store ready")

	return &Module{
		name:  b.Name,
		svc:   svc,
		ports: Ports{Reader: svc, Writer: svc},
	}, nil
}

// NewBackend picks the repo backend; a missing connection is an unavailable error
func NewBackend(deps modkit.Deps, opt Options) (repo.Backend, error) {
	switch opt.Backend {
	case BackendCH:
		if deps.CH == nil {
			return nil, perr.Unavailablef("observations backend ch needs SERVICE_CLICKHOUSE_DBURL")
		}
		return repo.NewCHBackend(deps.CH), nil
	case BackendPG, "":
		if deps.PG == nil {
			return nil, perr.Unavailablef("observations backend pg needs SERVICE_PGSQL_DBURL")
		}
		return repo.NewPGBackend(deps.PG, opt.StatementTimeout), nil
	default:
		return nil, perr.InvalidArgf("unknown observations backend %q", opt.Backend)
	}
}

// Service exposes the service for CLIs
func (m *Module) Service() service.Service { return m.svc }

// MountRoutes implements modkit.Module; reads are served by the advisor module
func (m *Module) MountRoutes(httpkit.Router) {}

// Name implements modkit.Module
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Ports implements modkit.Module
func (m *Module) Ports() any { return m.ports }
