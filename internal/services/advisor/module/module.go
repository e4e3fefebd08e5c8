// Package module wires the advisor into the API using modkit
package module

import (
	modkit "bioreactor/internal/modkit"
	"bioreactor/internal/modkit/httpkit"
	str "bioreactor/internal/platform/strings"
	"bioreactor/internal/services/advisor/domain"
	advhttp "bioreactor/internal/services/advisor/http"
	"bioreactor/internal/services/advisor/service"
	obsdomain "bioreactor/internal/services/observations/domain"
)

// Ports exposed by the advisor module
type Ports struct {
	Service domain.ServicePort
	Engine  domain.EnginePort
}

// Module implements the advisor module
type Module struct {
	b     modkit.Built
	svc   *service.Svc
	ports Ports
}

// New constructs the advisor module. An observations reader injected with
// modkit.WithPorts backs the stored-batch routes; without one they answer 503
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	cfg, err := service.FromConfig(deps.Cfg)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(deps, cfg, opts...), nil
}

// NewWithConfig constructs the module from an explicit engine config
func NewWithConfig(deps modkit.Deps, cfg service.Config, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("advisor"), modkit.WithPrefix("/batches")}, opts...)

	reader, _ := b.Ports.(obsdomain.ReaderPort)
	svc := service.New(reader, cfg.NewAdvisor(), cfg.Predictor(), cfg.Kind())

	deps.Logger().Info().
		Str("predictor", cfg.Kind()).
		Int("workers", svc.Engine().Workers).
		Bool("store", reader != nil).
		Msg("advisor ready")

	return &Module{
		b:     b,
		svc:   svc,
		ports: Ports{Service: svc, Engine: svc},
	}
}

// Service exposes the service for CLIs
func (m *Module) Service() service.Service { return m.svc }

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { advhttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.b.Name, "module name") }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
