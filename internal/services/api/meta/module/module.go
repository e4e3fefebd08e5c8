// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	modkit "bioreactor/internal/modkit"
	"bioreactor/internal/modkit/httpkit"
	str "bioreactor/internal/platform/strings"
	"bioreactor/internal/services/advisor/domain"

	metahttp "bioreactor/internal/services/api/meta/http"
)

// Module implements the modkit.Module interface
type Module struct {
	b         modkit.Built
	deps      modkit.Deps
	service   string
	startedAt time.Time
	engine    domain.EnginePort
}

// New constructs a meta module; the advisor EnginePort is injected with modkit.WithPorts
func New(deps modkit.Deps, serviceName string, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)

	engine, _ := b.Ports.(domain.EnginePort)
	return &Module{
		b:         b,
		deps:      deps,
		service:   str.Or(serviceName, "bioreactor-api"),
		startedAt: time.Now(),
		engine:    engine,
	}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	d := metahttp.Deps{
		ServiceName: m.service,
		StartedAt:   m.startedAt,
		Engine:      m.engine,
	}
	// typed nils would read as configured
	if m.deps.PG != nil {
		d.PG = m.deps.PG
	}
	if m.deps.CH != nil {
		d.CH = m.deps.CH
	}
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, d) })
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return str.MustString(m.b.Name, "meta") }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
