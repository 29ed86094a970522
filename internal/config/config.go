// Package config holds the engine's ambient configuration: plan-tree
// timeouts, step defaults, routing, and the feature-flag lookup consumed by
// spec'd config keys (ask-timeout, stale-sample-after, min-step,
// fastreduce-max-windows, routing, parser,
// translate-prom-to-filodb-histogram).
package config

import (
	"flag"
	"time"
)

// Routing holds the (currently opaque) routing subtree named in the
// external interfaces: how a plan decides which shard/dataset a leaf reads
// from. It is carried through as configuration but interpreted by the
// ChunkSource collaborator, not by this engine.
type Routing struct {
	Strategy string            `yaml:"strategy,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
}

// Config is the engine's root configuration, following the same
// yaml-tags-plus-RegisterFlagsAndApplyDefaults shape as every teacher config
// struct.
type Config struct {
	AskTimeout      time.Duration `yaml:"ask-timeout"`
	StaleSampleAfter time.Duration `yaml:"stale-sample-after"`
	MinStep         time.Duration `yaml:"min-step"`

	// FastReduceMaxWindows is the child-count threshold at or above which a
	// NonLeaf dispatches its children on a bounded worker pool instead of
	// one after another.
	FastReduceMaxWindows int `yaml:"fastreduce-max-windows"`

	Routing Routing `yaml:"routing,omitempty"`
	Parser  string  `yaml:"parser"`

	// TranslatePromToFiloDBHistogram is carried as configuration only;
	// nothing in this module reads it. The leaf-boundary histogram
	// conversion (HistogramTranslator in engine/execplan) runs whenever a
	// SelectRawSeriesPlan has a non-nil Translator.
	TranslatePromToFiloDBHistogram bool `yaml:"translate-prom-to-filodb-histogram"`

	// FeatureFlags is a catch-all has(name)-style lookup for flags not
	// otherwise promoted to a named field; unknown names default to false.
	FeatureFlags map[string]bool `yaml:"feature-flags,omitempty"`
}

// NewDefaultConfig returns a Config with defaults applied, the way
// _examples/grafana-tempo/cmd/tempo-federated-querier/config.go's NewDefaultConfig does: register
// onto a throwaway FlagSet and read the defaults back out.
func NewDefaultConfig() *Config {
	c := &Config{}
	fs := flag.NewFlagSet("", flag.PanicOnError)
	c.RegisterFlagsAndApplyDefaults("", fs)
	return c
}

// RegisterFlagsAndApplyDefaults registers the engine's flags under prefix
// and applies their defaults to c.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.DurationVar(&c.AskTimeout, prefix+"engine.ask-timeout", 30*time.Second, "Query timeout for the exec-plan tree.")
	f.DurationVar(&c.StaleSampleAfter, prefix+"engine.stale-sample-after", 5*time.Minute, "How long a sample remains valid without a newer point.")
	f.DurationVar(&c.MinStep, prefix+"engine.min-step", 1*time.Second, "Smallest allowed step between output timestamps.")
	f.IntVar(&c.FastReduceMaxWindows, prefix+"engine.fastreduce-max-windows", 50, "Child count at or above which a NonLeaf dispatches its children on a worker pool instead of sequentially.")
	f.StringVar(&c.Parser, prefix+"engine.parser", "promql", "Query language parser to use upstream of this engine.")
	f.BoolVar(&c.TranslatePromToFiloDBHistogram, prefix+"engine.translate-prom-to-filodb-histogram", false, "Convert classic Prometheus histogram buckets to the internal histogram schema at leaf boundaries.")
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.AskTimeout <= 0 {
		return errAskTimeoutMustBePositive
	}
	if c.MinStep <= 0 {
		return errMinStepMustBePositive
	}
	if c.FastReduceMaxWindows < 0 {
		return errFastReduceMaxWindowsNegative
	}
	return nil
}

// Has reports whether feature flag name is enabled, defaulting to false for
// unknown names per the spec'd has(name) convention.
func (c *Config) Has(name string) bool {
	if c.FeatureFlags == nil {
		return false
	}
	return c.FeatureFlags[name]
}
