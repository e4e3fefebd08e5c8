// Package swaggerkit serves the API's OpenAPI document and the swagger UI over it
package swaggerkit

import (
	"encoding/json"
	"net/http"

	phttp "bioreactor/internal/platform/net/http"
)

const (
	docsPrefix = "/api/docs"
	docPath    = docsPrefix + "/doc.json"
	basePath   = "/api/v1"
)

// Mount the swagger UI and JSON document when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(docsPrefix, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, docsPrefix+"/index.html", http.StatusPermanentRedirect)
	})
	r.Get(docPath, serveDocJSON)
	phttp.MountSwagger(r, docsPrefix, docPath, true)
}

// serveDocJSON reads the document through docReader, which is the embedded file by default
// and the swag generated spec in builds tagged swag
func serveDocJSON(w http.ResponseWriter, _ *http.Request) {
	var spec map[string]any
	if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
		http.Error(w, "spec parse error", http.StatusInternalServerError)
		return
	}
	decorate(spec)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(spec)
}

// decorate fills what annotations leave out: the base path, the error envelope definition and a
// 500 response on every operation
func decorate(spec map[string]any) {
	if _, ok := spec["basePath"]; !ok {
		spec["basePath"] = basePath
	}

	defs, ok := spec["definitions"].(map[string]any)
	if !ok {
		defs = map[string]any{}
		spec["definitions"] = defs
	}
	if _, ok := defs["http.Envelope"]; !ok {
		defs["http.Envelope"] = map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_code": map[string]any{"type": "integer"},
				"status":      map[string]any{"type": "string"},
				"code":        map[string]any{"type": "integer"},
				"data":        map[string]any{},
				"error":       map[string]any{"$ref": "#/definitions/errors.Wire"},
				"request_id":  map[string]any{"type": "string"},
			},
		}
	}

	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps, ok := op["responses"].(map[string]any)
			if !ok {
				resps = map[string]any{}
				op["responses"] = resps
			}
			if _, exists := resps["500"]; !exists {
				resps["500"] = map[string]any{
					"description": "Internal Server Error",
					"schema":      map[string]any{"$ref": "#/definitions/http.Envelope"},
				}
			}
		}
	}
}
