package selector

import (
	"slices"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const (
	defaultReleaseLimit  = 50
	defaultVersionPrefix = "v"
)

// Mode defines how the revision pair is chosen
type Mode string

const (
	// ModeLatest compares the two most recent stable releases
	ModeLatest Mode = "latest"
	// ModeExplicit compares two named revisions
	ModeExplicit Mode = "explicit"
	// ModeCommit compares the latest commit of a branch with its parent
	ModeCommit Mode = "commit"
)

var supportedModes = []Mode{ModeLatest, ModeExplicit, ModeCommit}

// Config represents release selection configuration
type Config struct {
	Mode          Mode   `yaml:"mode" env:"SELECTOR_MODE"`
	Base          string `yaml:"base" env:"SELECTOR_BASE"`
	Head          string `yaml:"head" env:"SELECTOR_HEAD"`
	Branch        string `yaml:"branch" env:"SELECTOR_BRANCH"`
	ReleaseLimit  int    `yaml:"release_limit" env:"SELECTOR_RELEASE_LIMIT"`
	VersionPrefix string `yaml:"version_prefix" env:"SELECTOR_VERSION_PREFIX"`
}

func (c *Config) PrepareAndValidate() error {
	if c.Mode == "" {
		c.Mode = ModeLatest
		if c.Base != "" || c.Head != "" {
			c.Mode = ModeExplicit
		}
	}
	if !slices.Contains(supportedModes, c.Mode) {
		return errm.Errorf("invalid selector mode: %s", c.Mode)
	}
	if c.Mode == ModeExplicit && (c.Base == "" || c.Head == "") {
		return errm.New("base and head are required in explicit mode")
	}

	c.ReleaseLimit = lang.Check(c.ReleaseLimit, defaultReleaseLimit)
	c.VersionPrefix = lang.Check(c.VersionPrefix, defaultVersionPrefix)

	return nil
}
