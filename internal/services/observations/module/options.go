package module

import (
	"time"

	"bioreactor/internal/platform/config"
	"bioreactor/internal/services/observations/service"
)

// Backend names accepted by CORE_OBSERVATIONS_BACKEND
const (
	BackendPG = "pg"
	BackendCH = "ch"
)

// Options configure the observations module
type Options struct {
	Backend          string
	HardLimit        int
	StatementTimeout time.Duration
}

// FromConfig reads CORE_OBSERVATIONS_{BACKEND,HARD_LIMIT,STATEMENT_TIMEOUT} under root
func FromConfig(root config.Conf) Options {
	c := root.Prefix("CORE_OBSERVATIONS_")
	return Options{
		Backend:          c.MayEnum("BACKEND", BackendPG, BackendPG, BackendCH),
		HardLimit:        c.MayInt("HARD_LIMIT", service.DefaultHardLimit),
		StatementTimeout: c.MayDuration("STATEMENT_TIMEOUT", 5*time.Second),
	}
}
