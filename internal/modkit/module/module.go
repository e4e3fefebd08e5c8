// Package module defines the minimal module contract and the cross module port registry
package module

import (
	phttp "bioreactor/internal/platform/net/http"
)

// Module is what the API composes; kept apart from modkit so port owners avoid import cycles
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
