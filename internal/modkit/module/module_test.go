package module

import (
	"testing"

	phttp "bioreactor/internal/platform/net/http"
	kit "bioreactor/internal/platform/testkit"
)

type reader interface{ Read() string }

type memReader struct{}

func (memReader) Read() string { return "rows" }

type bundle struct {
	Reader reader
	Limit  int
	hidden reader
}

type fake struct{ ports any }

func (fake) MountRoutes(phttp.Router) {}

func (fake) Name() string { return "fake" }

func (f fake) Ports() any { return f.ports }

func TestPortsOf(t *testing.T) {
	cases := []struct {
		name  string
		ports any
		ok    bool
	}{
		{"direct", memReader{}, true},
		{"struct field", bundle{Reader: memReader{}}, true},
		{"pointer to struct", &bundle{Reader: memReader{}}, true},
		{"unexported only", bundle{hidden: memReader{}}, false},
		{"nil", nil, false},
		{"scalar", 7, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := PortsOf[reader](fake{ports: tc.ports})
			if ok != tc.ok || (ok && r.Read() != "rows") {
				t.Fatalf("got %v %v", r, ok)
			}
		})
	}

	if b := MustPortsOf[bundle](fake{ports: bundle{Limit: 3}}); b.Limit != 3 {
		t.Fatalf("bundle %+v", b)
	}
	kit.MustPanic(t, func() { MustPortsOf[reader](fake{}) })
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("observations", bundle{Limit: 5})
	Register("meta", nil)

	if b, ok := PortsAs[bundle]("observations"); !ok || b.Limit != 5 {
		t.Fatalf("got %+v %v", b, ok)
	}
	if _, ok := PortsAs[reader]("observations"); ok {
		t.Fatal("wrong type should miss")
	}
	if _, ok := PortsAs[any]("meta"); ok {
		t.Fatal("nil ports should not register")
	}
}
