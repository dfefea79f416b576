package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/menta2k/image-annotator/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Annotator AnnotatorConfig `json:"annotator"`
	Ingest    IngestConfig    `json:"ingest"`
	Output    OutputConfig    `json:"output"`
	Suggest   SuggestConfig   `json:"suggest"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr          string `json:"addr"`
	MaxUploadMB   int    `json:"max_upload_mb"`
	ShutdownGrace int    `json:"shutdown_grace_seconds"`
}

// AnnotatorConfig holds the label set offered by the annotator and the example annotation
type AnnotatorConfig struct {
	Labels          []string      `json:"labels"`
	LabelColors     []types.Color `json:"label_colors"`
	ExampleImageURL string        `json:"example_image_url"`
	ExampleBoxes    []types.Box   `json:"example_boxes"`
}

// IngestConfig holds configuration for folder selection
type IngestConfig struct {
	Extensions []string `json:"extensions"`
	UploadDir  string   `json:"upload_dir"`
}

// OutputConfig holds configuration for crop output
type OutputConfig struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
}

// SuggestConfig holds configuration for vision model box suggestions
type SuggestConfig struct {
	Enabled       bool    `json:"enabled"`
	URL           string  `json:"url"`
	Model         string  `json:"model"`
	SendFormat    string  `json:"send_format"`
	SendSize      int     `json:"send_size"`
	SendQuality   int     `json:"send_quality"`
	MinConfidence float64 `json:"min_confidence"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          "127.0.0.1:7860",
			MaxUploadMB:   512,
			ShutdownGrace: 5,
		},
		Annotator: AnnotatorConfig{
			Labels:          []string{"Person", "Vehicle"},
			LabelColors:     []types.Color{{0, 255, 0}, {255, 0, 0}},
			ExampleImageURL: "https://gradio-builds.s3.amazonaws.com/demo-files/base.png",
			ExampleBoxes: []types.Box{
				{XMin: 636, YMin: 575, XMax: 801, YMax: 697, Label: "Vehicle", Color: types.Color{255, 0, 0}},
				{XMin: 360, YMin: 615, XMax: 386, YMax: 702, Label: "Person", Color: types.Color{0, 255, 0}},
			},
		},
		Ingest: IngestConfig{
			Extensions: []string{".png", ".jpg"},
			UploadDir:  filepath.Join(os.TempDir(), "image-annotator"),
		},
		Output: OutputConfig{
			Format:  "png",
			Quality: 90,
		},
		Suggest: SuggestConfig{
			Enabled:       false,
			URL:           "http://localhost:11434",
			Model:         "qwen2.5vl",
			SendFormat:    "jpg",
			SendSize:      1536,
			SendQuality:   85,
			MinConfidence: 0.3,
		},
	}
}

// LoadFromFile loads configuration from a JSON file on top of the defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}

	if c.Server.MaxUploadMB < 1 {
		return errors.New("server.max_upload_mb must be positive")
	}

	if len(c.Annotator.Labels) == 0 {
		return errors.New("annotator.labels cannot be empty")
	}

	if len(c.Annotator.Labels) != len(c.Annotator.LabelColors) {
		return errors.Errorf("annotator.label_colors must have one color per label (%d labels, %d colors)",
			len(c.Annotator.Labels), len(c.Annotator.LabelColors))
	}

	if len(c.Ingest.Extensions) == 0 {
		return errors.New("ingest.extensions cannot be empty")
	}

	for _, ext := range c.Ingest.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.Errorf("ingest.extensions entry %q must start with a dot", ext)
		}
	}

	switch strings.ToLower(c.Output.Format) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return errors.Errorf("output.format must be png, jpg or webp, got %q", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return errors.New("output.quality must be between 1 and 100")
	}

	if c.Suggest.Enabled {
		if c.Suggest.URL == "" || c.Suggest.Model == "" {
			return errors.New("suggest.url and suggest.model are required when suggestions are enabled")
		}
		if c.Suggest.SendQuality < 1 || c.Suggest.SendQuality > 100 {
			return errors.New("suggest.send_quality must be between 1 and 100")
		}
		if c.Suggest.MinConfidence < 0 || c.Suggest.MinConfidence > 1 {
			return errors.New("suggest.min_confidence must be between 0 and 1")
		}
	}

	return nil
}

// LabelConfig returns the annotator label configuration
func (c *Config) LabelConfig() types.AnnotatorConfig {
	return types.AnnotatorConfig{
		Labels:      c.Annotator.Labels,
		LabelColors: c.Annotator.LabelColors,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-annotator", "config.json")
}
