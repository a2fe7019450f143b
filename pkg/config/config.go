// Package config loads ui.yaml, the panel registry configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "ui.yaml"

// SchemaVersion is the newest ui.yaml schema this package understands.
// Files with the same major version are accepted.
const SchemaVersion = "v1.0.0"

// DefaultLayers are used when ui.yaml declares none.
var DefaultLayers = []string{"bottom", "normal", "top", "system"}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid ui config")

// Config is the on-disk form of ui.yaml.
type Config struct {
	Version string        `yaml:"version,omitempty"`
	Layers  []string      `yaml:"layers,omitempty"`
	Mask    MaskConfig    `yaml:"mask,omitempty"`
	Panels  []PanelConfig `yaml:"panels"`
}

// MaskConfig names the template used for mask overlays.
type MaskConfig struct {
	Template string `yaml:"template,omitempty"`
}

// PanelConfig describes one panel.
type PanelConfig struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template,omitempty"`
	Layer    string `yaml:"layer,omitempty"`
	// Cache defaults to true when omitted.
	Cache *bool `yaml:"cache,omitempty"`
	Mask  bool  `yaml:"mask,omitempty"`
}

// Env holds environment overrides.
type Env struct {
	Config  string `env:"PANELKIT_CONFIG"`
	Verbose bool   `env:"PANELKIT_VERBOSE"`
	Assets  string `env:"PANELKIT_ASSETS"`
	Prefs   string `env:"PANELKIT_PREFS"`
}

// Panel is a resolved panel description.
type Panel struct {
	Name     string
	Template string
	Layer    int
	Cache    bool
	Mask     bool
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Path         string
	Version      string
	ModulePath   string
	Layers       []string
	MaskTemplate string
	Panels       []Panel
	Env          Env
}

// ParseEnv reads the PANELKIT_* environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadOptional reads ui.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes ui.yaml content. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// Resolve applies environment overrides, loads the configuration and
// resolves defaults. The file is PANELKIT_CONFIG if set, else ui.yaml in dir.
func Resolve(dir string) (*Resolved, error) {
	e, err := ParseEnv()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, FileName)
	var cfg *Config
	if e.Config != "" {
		path = e.Config
		cfg, err = Load(path)
	} else {
		cfg, err = LoadOptional(dir)
	}
	if err != nil {
		return nil, err
	}

	r, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	r.Path = path
	r.Env = e
	r.ModulePath = modulePath(dir)
	return r, nil
}

// Resolve validates c and fills in defaults.
func (c *Config) Resolve() (*Resolved, error) {
	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = SchemaVersion
	}
	if err := checkVersion(version); err != nil {
		return nil, err
	}

	layers := c.Layers
	if len(layers) == 0 {
		layers = DefaultLayers
	}
	layerIndex := make(map[string]int, len(layers))
	for i, name := range layers {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: layer %d has no name", ErrInvalid, i)
		}
		if _, dup := layerIndex[name]; dup {
			return nil, fmt.Errorf("%w: duplicate layer %q", ErrInvalid, name)
		}
		layerIndex[name] = i
	}

	defaultLayer := 0
	if i, ok := layerIndex["normal"]; ok {
		defaultLayer = i
	}

	seen := make(map[string]bool, len(c.Panels))
	panels := make([]Panel, 0, len(c.Panels))
	for i, pc := range c.Panels {
		name := strings.TrimSpace(pc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: panel %d has no name", ErrInvalid, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate panel %q", ErrInvalid, name)
		}
		seen[name] = true

		p := Panel{Name: name, Template: strings.TrimSpace(pc.Template), Layer: defaultLayer, Cache: true, Mask: pc.Mask}
		if p.Template == "" {
			p.Template = "ui/" + name
		}
		if pc.Layer != "" {
			idx, ok := layerIndex[pc.Layer]
			if !ok {
				return nil, fmt.Errorf("%w: panel %q uses unknown layer %q", ErrInvalid, name, pc.Layer)
			}
			p.Layer = idx
		}
		if pc.Cache != nil {
			p.Cache = *pc.Cache
		}
		panels = append(panels, p)
	}

	return &Resolved{
		Version:      version,
		Layers:       append([]string(nil), layers...),
		MaskTemplate: strings.TrimSpace(c.Mask.Template),
		Panels:       panels,
	}, nil
}

// checkVersion accepts versions with or without a leading "v" whose major
// version matches SchemaVersion.
func checkVersion(version string) error {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: version %q is not a semantic version", ErrInvalid, version)
	}
	if semver.Major(v) != semver.Major(SchemaVersion) {
		return fmt.Errorf("%w: unsupported schema version %s (want %s.x)", ErrInvalid, version, semver.Major(SchemaVersion))
	}
	if semver.Compare(v, SchemaVersion) > 0 {
		return fmt.Errorf("%w: schema version %s is newer than supported %s", ErrInvalid, version, SchemaVersion)
	}
	return nil
}

// modulePath returns the Go module path of dir, or "" if dir has no go.mod.
func modulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}
