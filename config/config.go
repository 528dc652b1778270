// Package config provides the adapter's environment-driven configuration:
// the knobs that apply across every invocation regardless of which stage
// or phase is being run, as opposed to the per-invocation Args the Host
// passes on the command line.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config provides the adapter's system configuration, read once at process
// startup from the environment.
type Config struct {
	Debug bool `envconfig:"DEBUG"`
	Trace bool `envconfig:"TRACE"`

	// LogLevel is the logrus level floor, set once at startup and never
	// changed mid-phase. Accepts logrus level names (warn, info, debug,
	// trace, ...); empty means the adapter's own default (warn).
	LogLevel string `envconfig:"MARTIAN_LOG_LEVEL" default:"warn"`

	// HeartbeatInterval overrides the default ~4 minute heartbeat cadence.
	// Zero means use the default.
	HeartbeatInterval time.Duration `envconfig:"MARTIAN_HEARTBEAT_INTERVAL"`

	// TimestampFormat holds the requested log timestamp layout, "legacy"
	// or "rfc3339"; defaults to "legacy". It is loaded but not used:
	// adapter.Run always logs with logger.LegacyTimestampFormat.
	TimestampFormat string `envconfig:"MARTIAN_LOG_TIMESTAMP_FORMAT" default:"legacy"`

	// Version is stamped into _jobinfo's adapter identifier block.
	Version string `envconfig:"MARTIAN_ADAPTER_VERSION"`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// ParsedLogLevel parses c.LogLevel, falling back to logrus.WarnLevel if
// empty or unrecognized.
func (c Config) ParsedLogLevel() logrus.Level {
	if c.LogLevel == "" {
		return logrus.WarnLevel
	}
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}
