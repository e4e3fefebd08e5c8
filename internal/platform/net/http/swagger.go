package http

import (
	httpSwagger "github.com/swaggo/http-swagger"
)

// MountSwagger serves swagger UI under prefix, e.g. "/api/docs", reading the document from docURL
func MountSwagger(r Router, prefix, docURL string, enabled bool) {
	if !enabled {
		return
	}
	r.Get(prefix+"/*", httpSwagger.Handler(httpSwagger.URL(docURL)))
}
