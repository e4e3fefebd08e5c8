package swaggerkit

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"bioreactor/internal/platform/testkit"
)

func TestDecorate(t *testing.T) {
	spec := map[string]any{
		"paths": map[string]any{
			"/batches": map[string]any{
				"get": map[string]any{"responses": map[string]any{"500": "kept"}},
			},
			"/meta/engine": map[string]any{"get": map[string]any{}},
		},
	}
	decorate(spec)

	if spec["basePath"] != basePath {
		t.Fatalf("basePath %v", spec["basePath"])
	}
	if _, ok := spec["definitions"].(map[string]any)["http.Envelope"]; !ok {
		t.Fatal("envelope definition missing")
	}
	paths := spec["paths"].(map[string]any)
	if got := paths["/batches"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)["500"]; got != "kept" {
		t.Fatalf("existing 500 replaced: %v", got)
	}
	if _, ok := paths["/meta/engine"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)["500"]; !ok {
		t.Fatal("default 500 not added")
	}
}

func TestServeDocJSON_BadDocument(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &docReader, func() string { return "{" })
	rec := httptest.NewRecorder()
	serveDocJSON(rec, httptest.NewRequest(stdhttp.MethodGet, docPath, nil))
	if rec.Code != stdhttp.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	testkit.MustContain(t, rec.Body.String(), "spec parse error")
}
