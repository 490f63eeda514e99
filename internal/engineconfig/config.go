// Package engineconfig loads the engine's on-disk YAML configuration,
// the same file-plus-defaults shape core/config/manager.go uses for
// its own component configs.
package engineconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nilreef/ctxengine/internal/tokenizer"
)

// Config is the engine's top-level configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Log       LogConfig       `yaml:"log"`
}

// WorkspaceConfig locates the indexed workspace.
type WorkspaceConfig struct {
	RootPath    string `yaml:"root_path"`
	Concurrency int    `yaml:"concurrency"`
}

// StoreConfig locates on-disk store files.
type StoreConfig struct {
	VectorPath   string `yaml:"vector_path"`
	MetadataPath string `yaml:"metadata_path"`
	DepsPath     string `yaml:"deps_path"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "local" or "openai"; the engine passes no API key to "openai", so Initialize fails with it
	Model    string `yaml:"model"`
}

// LogConfig controls the engine's zap logger.
type LogConfig struct {
	Level          string              `yaml:"level"` // "debug", "info", "warn", "error"
	TokenizerModel tokenizer.ModelFamily `yaml:"tokenizer_model"`
}

// Default returns the engine's default configuration, used whenever no
// config file is present or a field is left unset.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			RootPath:    ".",
			Concurrency: 4,
		},
		Store: StoreConfig{
			VectorPath:   ".ctxengine/vectors",
			MetadataPath: ".ctxengine/metadata.bleve",
			DepsPath:     ".ctxengine/deps.db",
		},
		Embedding: EmbeddingConfig{
			Provider: "local",
		},
		Log: LogConfig{
			Level:          "info",
			TokenizerModel: tokenizer.FamilyClaude,
		},
	}
}

// Load reads path and overlays it onto Default(), returning the merged
// configuration. A missing file is not an error; it yields the default
// configuration unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("engineconfig: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("engineconfig: parse %q: %w", path, err)
	}
	return cfg, nil
}
