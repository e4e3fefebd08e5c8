package modkit

import (
	"net/http"

	"bioreactor/internal/modkit/httpkit"
	pstrings "bioreactor/internal/platform/strings"
)

// Built is the resolved option set a module keeps
type Built struct {
	Name      string
	Prefix    string
	Mw        []func(http.Handler) http.Handler
	Ports     any
	Subrouter func(httpkit.Router) httpkit.Router
	Register  func(httpkit.Router)
}

// Build applies defaults first and opts after, so callers override module defaults
func Build(defaults []Option, opts ...Option) Built {
	var c buildCfg
	for _, o := range append(defaults, opts...) {
		o(&c)
	}
	if c.subrouter == nil {
		c.subrouter = func(r httpkit.Router) httpkit.Router { return r }
	}
	if c.register == nil {
		c.register = func(httpkit.Router) {}
	}
	return Built{
		Name:      c.name,
		Prefix:    c.prefix,
		Mw:        append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:     c.ports,
		Subrouter: c.subrouter,
		Register:  c.register,
	}
}

// Mount registers own then the external Register hook under Prefix with Mw applied
func (b Built) Mount(r httpkit.Router, own func(httpkit.Router)) {
	httpkit.MountUnder(r, pstrings.MustPrefix(b.Prefix), b.Mw, func(sub httpkit.Router) {
		sub = b.Subrouter(sub)
		own(sub)
		b.Register(sub)
	})
}
