package watch

import (
	"regexp"
	"strings"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const defaultFallback = "view"

var defaultPatterns = []string{
	`view\.m?js$`,
	`block\.json$`,
	`\.s?css$`,
}

// Config represents the watch rule configuration
type Config struct {
	Folder   string   `yaml:"folder" env:"WATCH_FOLDER"`
	Patterns []string `yaml:"patterns" env:"WATCH_PATTERNS" env-separator:","`

	// FallbackSubstring broadens matching to any file in Folder whose name contains it
	FallbackSubstring string `yaml:"fallback_substring" env:"WATCH_FALLBACK_SUBSTRING"`
	DisableFallback   bool   `yaml:"disable_fallback" env:"WATCH_DISABLE_FALLBACK"`
}

func (c *Config) PrepareAndValidate() error {
	c.Folder = strings.TrimPrefix(strings.TrimSpace(c.Folder), "/")
	if len(c.Patterns) == 0 {
		c.Patterns = defaultPatterns
	}
	if c.DisableFallback {
		c.FallbackSubstring = ""
	} else {
		c.FallbackSubstring = lang.Check(c.FallbackSubstring, defaultFallback)
	}

	for _, p := range c.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return errm.Wrap(err, "invalid watch pattern "+p)
		}
	}

	return nil
}
