package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bioreactor/internal/platform/config"
	kit "bioreactor/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func TestNewServer_Config(t *testing.T) {
	kit.Env(t, map[string]string{"SRVT_PORT": "4811", "SRVT_SHUTDOWN_GRACE": "1s"})
	s := NewServer(config.New().Prefix("SRVT_"), func(m *chi.Mux) {
		m.Get("/ping", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) { w.WriteHeader(stdhttp.StatusTeapot) })
	})
	if s.Addr() != ":4811" || s.grace != time.Second {
		t.Fatalf("addr %q grace %v", s.Addr(), s.grace)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, "/ping", nil))
	if rec.Code != stdhttp.StatusTeapot {
		t.Fatalf("status %d", rec.Code)
	}
	if NewServer(config.New().Prefix("SRVT_NONE_")).Addr() != ":4000" {
		t.Fatal("default addr")
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	kit.Env(t, map[string]string{"SRVR_PORT": "48123", "SRVR_SHUTDOWN_GRACE": "500ms"})
	s := NewServer(config.New().Prefix("SRVR_"))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
