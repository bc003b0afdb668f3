// Package config provides configuration loading for streamfetch.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rodrigopv/streamfetch/internal/provider/media"
	"github.com/rodrigopv/streamfetch/internal/provider/objectstore"
	"github.com/rodrigopv/streamfetch/internal/provider/web"
)

// Config represents the root configuration structure
type Config struct {
	// FastPath is the capability flag: try the media descriptor API for
	// eligible locators when the host supports it.
	FastPath bool `yaml:"fastPath"`
	// FileRoot is the directory relative locators resolve against.
	// Defaults to the working directory.
	FileRoot    string              `yaml:"fileRoot,omitempty"`
	Contacts    ContactsConfig      `yaml:"contacts"`
	Media       MediaConfig         `yaml:"media"`
	ObjectStore *objectstore.Config `yaml:"objectStore,omitempty"`
	HTTP        HTTPConfig          `yaml:"http"`
}

// ContactsConfig points at the HTML contact directory.
type ContactsConfig struct {
	Directory string `yaml:"directory,omitempty"`
}

// MediaConfig configures the media store.
type MediaConfig struct {
	Root      string `yaml:"root,omitempty"`
	MinKernel string `yaml:"minKernel,omitempty"`
}

// HTTPConfig configures the web provider.
type HTTPConfig struct {
	Disabled bool          `yaml:"disabled,omitempty"`
	Profiles []web.Profile `yaml:"profiles,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		FastPath: true,
		Media: MediaConfig{
			MinKernel: media.DefaultMinKernel,
		},
	}
}

// Load reads a YAML configuration file on top of Default. Relative paths in
// the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.FileRoot = resolvePath(base, cfg.FileRoot)
	cfg.Contacts.Directory = resolvePath(base, cfg.Contacts.Directory)
	cfg.Media.Root = resolvePath(base, cfg.Media.Root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Validate applies defaults and rejects inconsistent settings.
func (c *Config) Validate() error {
	if c.Media.MinKernel == "" {
		c.Media.MinKernel = media.DefaultMinKernel
	}
	if c.ObjectStore != nil && c.ObjectStore.Endpoint == "" {
		return errors.New("config: objectStore.endpoint is required when objectStore is set")
	}
	for i, p := range c.HTTP.Profiles {
		if p.JA3 == "" || p.UserAgent == "" {
			return fmt.Errorf("config: http.profiles[%d] needs both ja3 and userAgent", i)
		}
	}
	return nil
}
