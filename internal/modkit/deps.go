// Package modkit provides module wiring and the deps every module receives
package modkit

import (
	"bioreactor/internal/platform/config"
	"bioreactor/internal/platform/logger"
	"bioreactor/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG and CH are nil when the backend is not configured
type Deps struct {
	Log *logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}

// FromStore builds Deps over an opened store
func FromStore(cfg config.Conf, st *store.Store) Deps {
	d := Deps{Log: logger.Get(), Cfg: cfg}
	if st != nil {
		d.PG, d.CH = st.PG, st.CH
	}
	return d
}

// Logger returns Log or the root logger
func (d Deps) Logger() *logger.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Get()
}
