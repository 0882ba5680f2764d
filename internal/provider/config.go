package provider

import (
	"slices"
	"strings"

	"github.com/maxbolgarin/errm"
)

type ProviderType string

// SupportedProviderTypes defines the supported source control hosts
const (
	GitLab    ProviderType = "gitlab"
	GitHub    ProviderType = "github"
	Bitbucket ProviderType = "bitbucket"
)

var supportedProviderTypes = []ProviderType{GitLab, GitHub, Bitbucket}

// Config represents source control host configuration
type Config struct {
	Type       ProviderType `yaml:"type" env:"PROVIDER_TYPE"`
	BaseURL    string       `yaml:"base_url" env:"PROVIDER_BASE_URL"`
	Token      string       `yaml:"token" env:"MONITOR_TOKEN"`
	Repository string       `yaml:"repository" env:"TARGET_REPO"`
	Branch     string       `yaml:"branch" env:"PROVIDER_BRANCH"`
}

func (c *Config) PrepareAndValidate() error {
	if c.Token == "" {
		return errm.New("token is required")
	}
	if c.Type == "" {
		c.Type = GitHub
	}
	c.Type = ProviderType(strings.ToLower(string(c.Type)))
	if !slices.Contains(supportedProviderTypes, c.Type) {
		return errm.Errorf("invalid provider type: %s", c.Type)
	}
	c.Repository = strings.Trim(c.Repository, "/ ")
	if c.Repository == "" {
		return errm.New("repository is required")
	}

	return nil
}
