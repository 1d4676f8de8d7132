package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/jo-hoe/closetcam/internal/backend/commands"
	"github.com/jo-hoe/closetcam/internal/backend/commandstructure"
	"github.com/jo-hoe/closetcam/internal/backend/describe"
	"github.com/jo-hoe/closetcam/internal/backend/vision"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort           = 8080
	DefaultImageDirectory = "images"
	DefaultThumbnailWidth = 256
	DefaultSampleSize     = 10
	DefaultConfigPath     = "config.yaml"
)

// CommandConfig names an upload processing command; all other keys are its parameters.
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port"`
	Database       Database        `yaml:"database"`
	ImageDirectory string          `yaml:"imageDirectory"`
	JpegQuality    int             `yaml:"jpegQuality"`
	ThumbnailWidth int             `yaml:"thumbnailWidth"`
	SampleSize     int             `yaml:"sampleSize"`
	Commands       []CommandConfig `yaml:"commands"`
	Describer      describe.Config `yaml:"describer"`
	Vision         vision.Config   `yaml:"vision"`
}

// DefaultConfig is a file-backed SQLite library without remote backends.
func DefaultConfig() *ServiceConfig {
	config := &ServiceConfig{}
	config.applyDefaults()
	return config
}

// ConfigPath returns CONFIG_PATH or the default file name.
func ConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return DefaultConfigPath
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	return config, nil
}

// ParseConfig parses YAML, fills in defaults and validates the result.
func ParseConfig(data []byte) (*ServiceConfig, error) {
	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Database.Type == "sqlite" && c.Database.ConnectionString == "" {
		c.Database.ConnectionString = "closetcam.db"
	}
	if c.ImageDirectory == "" {
		c.ImageDirectory = DefaultImageDirectory
	}
	if c.JpegQuality == 0 {
		c.JpegQuality = commands.DefaultJpegQuality
	}
	if c.ThumbnailWidth == 0 {
		c.ThumbnailWidth = DefaultThumbnailWidth
	}
	if c.SampleSize == 0 {
		c.SampleSize = DefaultSampleSize
	}
}

func (c *ServiceConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Database.Type {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported database type %q (must be 'sqlite' or 'redis')", c.Database.Type)
	}
	if c.Database.ConnectionString == "" {
		return fmt.Errorf("database connection string must not be empty")
	}
	if c.JpegQuality < 1 || c.JpegQuality > 100 {
		return fmt.Errorf("jpegQuality must be between 1 and 100, got %d", c.JpegQuality)
	}
	if c.ThumbnailWidth < 1 {
		return fmt.Errorf("thumbnailWidth must be positive, got %d", c.ThumbnailWidth)
	}
	if c.SampleSize < 1 {
		return fmt.Errorf("sampleSize must be positive, got %d", c.SampleSize)
	}
	switch strings.ToLower(c.Describer.Provider) {
	case "", describe.ProviderGemini, describe.ProviderOllama:
	default:
		return fmt.Errorf("unsupported describer provider %q", c.Describer.Provider)
	}
	if err := validateCommands(c.Commands); err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}
	return nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(configs []CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range configs {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true

		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command %s at index %d", cmd.Name, i)
		}
	}

	return nil
}

func (c *ServiceConfig) commandConfigs() []commandstructure.CommandConfig {
	configs := make([]commandstructure.CommandConfig, 0, len(c.Commands))
	for _, cmd := range c.Commands {
		params := cmd.Params
		if params == nil {
			params = map[string]any{}
		}
		configs = append(configs, commandstructure.CommandConfig{Name: cmd.Name, Params: params})
	}
	return configs
}
