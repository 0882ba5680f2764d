package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/relwatch/internal/monitor"
	"github.com/maxbolgarin/relwatch/internal/notify"
	"github.com/maxbolgarin/relwatch/internal/provider"
	"github.com/maxbolgarin/relwatch/internal/selector"
	"github.com/maxbolgarin/relwatch/internal/watch"
)

const defaultEnvFile = ".env"

// Config represents the main application configuration
type Config struct {
	Provider provider.Config `yaml:"provider"`
	Selector selector.Config `yaml:"selector"`
	Watch    watch.Config    `yaml:"watch"`
	Report   ReportConfig    `yaml:"report"`
	Notify   notify.Config   `yaml:"notify"`
	Monitor  monitor.Config  `yaml:"monitor"`
	Log      LogConfig       `yaml:"log"`
}

// ReportConfig represents report rendering and persistence configuration
type ReportConfig struct {
	OutputDir          string `yaml:"output_dir" env:"REPORT_OUTPUT_DIR"`
	DisableFileAnchors bool   `yaml:"disable_file_anchors" env:"REPORT_DISABLE_FILE_ANCHORS"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Debug bool `yaml:"debug" env:"LOG_DEBUG"`
}

// Load reads configuration from an optional .env file, an optional YAML file and the environment.
// Environment variables override values from the file.
func Load(path string) (Config, error) {
	var cfg Config

	if err := godotenv.Load(defaultEnvFile); err != nil && !os.IsNotExist(err) {
		return cfg, errm.Wrap(err, "load env file")
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, errm.Wrap(err, "read config file")
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, errm.Wrap(err, "read env")
		}
	}

	return cfg, nil
}

// Validate prepares defaults of every section and validates them
func (c *Config) Validate() error {
	if err := c.Provider.PrepareAndValidate(); err != nil {
		return errm.Wrap(ErrInvalidProviderConfig, err.Error())
	}
	if err := c.Selector.PrepareAndValidate(); err != nil {
		return errm.Wrap(ErrInvalidSelectorConfig, err.Error())
	}
	if err := c.Watch.PrepareAndValidate(); err != nil {
		return errm.Wrap(ErrInvalidWatchConfig, err.Error())
	}
	if err := c.Notify.PrepareAndValidate(); err != nil {
		return errm.Wrap(ErrInvalidNotifyConfig, err.Error())
	}
	if err := c.Monitor.PrepareAndValidate(); err != nil {
		return errm.Wrap(ErrInvalidMonitorConfig, err.Error())
	}
	return nil
}

// FileAnchors reports whether report links should point at per-file diff anchors
func (c *Config) FileAnchors() bool {
	return c.Provider.Type == provider.GitHub && !c.Report.DisableFileAnchors
}
