// Package config reads namespaced settings from the environment.
// Must* accessors panic through the logger on missing or malformed values;
// May* accessors fall back to a default and warn when a value is malformed
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bioreactor/internal/platform/logger"
)

// Conf is a prefixed env view, e.g. New().Prefix("CORE_").Prefix("ANOMALY_")
type Conf struct{ prefix string }

// New returns an unprefixed view
func New() Conf { return Conf{} }

// Prefix appends p to the view prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the fully qualified variable name
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.Key(k))) }

func (c Conf) must(k string) string {
	v := c.lookup(k)
	if v == "" {
		logger.Get().Panic().Str("key", c.Key(k)).Msg("missing required env")
	}
	return v
}

func (c Conf) bad(k, v, want string) {
	logger.Get().Panic().Str("key", c.Key(k)).Str("value", v).Msg("invalid env, want " + want)
}

// may parses key with parse, returning def when unset and warning when malformed
func may[T any](c Conf, key string, def T, parse func(string) (T, error)) T {
	s := c.lookup(key)
	if s == "" {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Interface("default", def).Msg("invalid env; using default")
		return def
	}
	return v
}

// MustString returns a required value
func (c Conf) MustString(key string) string { return c.must(key) }

// MustInt returns a required integer
func (c Conf) MustInt(key string) int {
	s := c.must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		c.bad(key, s, "int")
	}
	return n
}

// MustDuration returns a required duration like 250ms or 2s
func (c Conf) MustDuration(key string) time.Duration {
	s := c.must(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		c.bad(key, s, "duration")
	}
	return d
}

// MustURL returns a required absolute URL
func (c Conf) MustURL(key string) *url.URL {
	s := c.must(key)
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		c.bad(key, s, "absolute URL")
	}
	return u
}

// MustPort returns a listen address ":N" for 1 <= N <= 65535
func (c Conf) MustPort(key string) string {
	s := c.must(key)
	p, err := strconv.Atoi(s)
	if err != nil || p < 1 || p > 65535 {
		c.bad(key, s, "port 1..65535")
	}
	return ":" + s
}

// Require panics on the first missing key
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		c.must(k)
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// MayInt returns an integer or def
func (c Conf) MayInt(key string, def int) int { return may(c, key, def, strconv.Atoi) }

// MayFloat64 returns a float or def
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool returns a bool or def
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, def, strconv.ParseBool) }

// MayDuration returns a duration or def
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, def, time.ParseDuration)
}

// MayCSV splits a comma separated value, dropping blanks
func (c Conf) MayCSV(key string, def []string) []string {
	out := splitCSV(c.lookup(key))
	if len(out) == 0 {
		return def
	}
	return out
}

// MayFloats parses a comma separated list of floats; any malformed item yields def
func (c Conf) MayFloats(key string, def []float64) []float64 {
	return may(c, key, def, func(s string) ([]float64, error) {
		parts := splitCSV(s)
		out := make([]float64, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	})
}

// MayEnum returns the lower-cased value if it is one of allowed, def when unset, and panics otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := c.MayString(key, def)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a)
		}
	}
	if v == def {
		return def
	}
	logger.Get().Panic().Str("key", c.Key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
