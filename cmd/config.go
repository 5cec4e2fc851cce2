package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/lenslabs/fieldlens/internal/pipeline"
	"github.com/lenslabs/fieldlens/internal/propagate"
	"github.com/lenslabs/fieldlens/internal/repoident"
)

const maxWalkDepth = 25

// Config is the fieldlens configuration from fieldlens.yaml.
type Config struct {
	// Output is the analysis document path.
	Output string `mapstructure:"output"`

	// MaxRecursionDepth bounds field-requirement propagation.
	MaxRecursionDepth int `mapstructure:"max_recursion_depth"`

	// ExcludeSetterMethods drops pure setter methods from propagation.
	ExcludeSetterMethods bool `mapstructure:"exclude_setter_methods"`

	// FailOnError makes output-step failures fail the run.
	FailOnError bool `mapstructure:"fail_on_error"`

	Repository RepositoryConfig `mapstructure:"repository"`
	Aggregate  AggregateConfig  `mapstructure:"aggregate"`
}

// RepositoryConfig tunes repository detection.
type RepositoryConfig struct {
	Interfaces      []string `mapstructure:"interfaces"`
	Annotations     []string `mapstructure:"annotations"`
	NamingTemplates []string `mapstructure:"naming_templates"`
}

// AggregateConfig tunes aggregate-root detection.
type AggregateConfig struct {
	Annotations []string `mapstructure:"annotations"`
}

// PipelineOptions converts the configuration into pipeline options.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Ident: repoident.Options{
			MarkerInterfaces:     c.Repository.Interfaces,
			Annotations:          c.Repository.Annotations,
			NamingTemplates:      c.Repository.NamingTemplates,
			AggregateAnnotations: c.Aggregate.Annotations,
		},
		Propagate: propagate.Options{
			MaxDepth:             c.MaxRecursionDepth,
			ExcludeSetterMethods: c.ExcludeSetterMethods,
		},
	}
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none
// found), and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FIELDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, path, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, path, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper) {
	ident := repoident.DefaultOptions()

	v.SetDefault("output", "fieldlens-analysis.json")
	v.SetDefault("max_recursion_depth", propagate.DefaultMaxDepth)
	v.SetDefault("exclude_setter_methods", false)
	v.SetDefault("fail_on_error", false)

	v.SetDefault("repository.interfaces", ident.MarkerInterfaces)
	v.SetDefault("repository.annotations", ident.Annotations)
	v.SetDefault("repository.naming_templates", ident.NamingTemplates)
	v.SetDefault("aggregate.annotations", ident.AggregateAnnotations)
}

// findConfigFile finds the config file to use. If explicitPath is provided,
// it must exist. Otherwise fieldlens.yaml / fieldlens.yml is discovered
// walking up from cwd, stopping at a .git boundary or after maxWalkDepth
// levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"fieldlens.yaml", "fieldlens.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break // repo root
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // filesystem root
		}
		dir = parent
	}

	return "", nil // no config, use defaults
}
