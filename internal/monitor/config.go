package monitor

import (
	"github.com/maxbolgarin/lang"
)

const defaultMarkerPrefix = "relwatch-notified-"

// Config represents run behaviour configuration
type Config struct {
	Marker  MarkerConfig `yaml:"marker"`
	DryRun  bool         `yaml:"dry_run" env:"DRY_RUN"`
	Verbose bool         `yaml:"verbose" env:"VERBOSE"`
}

// MarkerConfig represents idempotency marker configuration
type MarkerConfig struct {
	Disable bool   `yaml:"disable" env:"MARKER_DISABLE"`
	Prefix  string `yaml:"prefix" env:"MARKER_PREFIX"`
}

func (c *Config) PrepareAndValidate() error {
	c.Marker.Prefix = lang.Check(c.Marker.Prefix, defaultMarkerPrefix)
	return nil
}

// MarkerKey returns the marker tag for a head revision
func MarkerKey(prefix, head string) string {
	return prefix + head
}
