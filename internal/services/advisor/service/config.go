package service

import (
	"bioreactor/internal/adapters/predict/remote"
	"bioreactor/internal/core/advisor"
	"bioreactor/internal/core/anomaly"
	"bioreactor/internal/core/feed"
	"bioreactor/internal/core/model"
	"bioreactor/internal/core/observation"
	"bioreactor/internal/platform/config"
	perr "bioreactor/internal/platform/errors"
)

// Predictor kinds accepted by CORE_MODEL_KIND
const (
	KindLinear = "linear"
	KindRemote = "remote"

	// KindTable is only set programmatically, by the advise CLI
	KindTable = "table"
)

// DefaultLinear is a hand fit to the synthetic generator: feed rises with cell density and low glucose
var DefaultLinear = model.Linear{
	Intercept: 5.5,
	Coef:      [observation.FeatureCount]float64{0, 0.8, -0.25},
}

// Config is everything the advisor engine reads from the environment
type Config struct {
	Thresholds anomaly.Thresholds
	Rules      feed.Rules
	Advisor    advisor.Config
	ModelKind  string
	Linear     model.Linear
	Remote     remote.Options

	// Table wins over ModelKind when set
	Table *model.Table
}

// FromConfig reads CORE_ANOMALY_*, CORE_FEED_*, CORE_ADVISOR_* and CORE_MODEL_* under root
func FromConfig(root config.Conf) (Config, error) {
	th := anomaly.DefaultThresholds()
	an := root.Prefix("CORE_ANOMALY_")
	th.DODrop = an.MayFloat64("DO_DROP", th.DODrop)
	th.LactateSpike = an.MayFloat64("LACTATE_SPIKE", th.LactateSpike)
	th.PHDrift = an.MayFloat64("PH_DRIFT", th.PHDrift)

	rules := feed.DefaultRules()
	fd := root.Prefix("CORE_FEED_")
	rules.GlucoseLow = fd.MayFloat64("GLUCOSE_LOW", rules.GlucoseLow)
	rules.DOLow = fd.MayFloat64("DO_LOW", rules.DOLow)
	rules.VCDHigh = fd.MayFloat64("VCD_HIGH", rules.VCDHigh)

	cfg := Config{
		Thresholds: th,
		Rules:      rules,
		Advisor:    advisor.Config{Workers: root.Prefix("CORE_ADVISOR_").MayInt("WORKERS", 1)},
		Linear:     DefaultLinear,
	}

	mc := root.Prefix("CORE_MODEL_")
	cfg.ModelKind = mc.MayEnum("KIND", KindLinear, KindLinear, KindRemote)
	switch cfg.ModelKind {
	case KindLinear:
		cfg.Linear.Intercept = mc.MayFloat64("LINEAR_INTERCEPT", DefaultLinear.Intercept)
		coef := mc.MayFloats("LINEAR_COEF", DefaultLinear.Coef[:])
		if len(coef) != observation.FeatureCount {
			return Config{}, perr.WithField(
				perr.InvalidArgf("%s needs %d values, got %d", mc.Key("LINEAR_COEF"), observation.FeatureCount, len(coef)),
				mc.Key("LINEAR_COEF"))
		}
		copy(cfg.Linear.Coef[:], coef)
	case KindRemote:
		cfg.Remote = remote.FromConfig(mc.Prefix("REMOTE_"))
	}
	return cfg, nil
}

// Predictor builds the configured predictor
func (c Config) Predictor() feed.Predictor {
	switch {
	case c.Table != nil:
		return c.Table
	case c.ModelKind == KindRemote:
		return remote.New(c.Remote)
	}
	return c.Linear
}

// Kind names the predictor Predictor returns
func (c Config) Kind() string {
	switch {
	case c.Table != nil:
		return KindTable
	case c.ModelKind == "":
		return KindLinear
	}
	return c.ModelKind
}

// NewAdvisor builds the core advisor from the configured thresholds and rules
func (c Config) NewAdvisor() *advisor.Advisor {
	return advisor.New(anomaly.NewWithThresholds(c.Thresholds), feed.NewWithRules(c.Rules), c.Advisor)
}
