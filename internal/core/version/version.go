// Package version carries build metadata stamped at link time
package version

// BuildInfo describes one binary build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns build metadata for the named binary.
//
//	go build -ldflags "-X 'bioreactor/internal/core/version.version=v0.1.0' \
//	  -X 'bioreactor/internal/core/version.commit=abcd' \
//	  -X 'bioreactor/internal/core/version.date=2026-10-18'"
func Info(service string) BuildInfo {
	if service == "" {
		service = "bioreactor"
	}
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders "service version (commit, date)"
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
