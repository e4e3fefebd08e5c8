package httpkit

import (
	"net/http"

	phttp "bioreactor/internal/platform/net/http"
)

// Get mounts a body-less handler whose result is enveloped
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	phttp.GetJSON(r, path, h)
}

// PostJSON mounts a handler that receives a decoded and validated T
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	phttp.PostJSON(r, path, h)
}

// Param is the named chi path parameter
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }
