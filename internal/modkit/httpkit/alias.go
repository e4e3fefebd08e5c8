// Package httpkit is the routing toolkit modules mount their handlers with
package httpkit

import (
	phttp "bioreactor/internal/platform/net/http"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Handler is the plain handler shape
	Handler = phttp.Handler

	// Response is a status, body and headers triple for Handle
	Response = phttp.Response
)

// OK wraps data in a 200 envelope
func OK(data any) Response { return phttp.OK(data) }

// Error maps err to its status and error envelope
func Error(err error) Response { return phttp.Error(err) }
