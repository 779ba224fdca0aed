package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/pose-template/pkg/history"
	"github.com/menta2k/pose-template/pkg/render"
)

// Config holds the application configuration
type Config struct {
	Editor  EditorConfig  `json:"editor" toml:"editor" yaml:"editor"`
	Render  render.Config `json:"render" toml:"render" yaml:"render"`
	Predict PredictConfig `json:"predict" toml:"predict" yaml:"predict"`
	Output  OutputConfig  `json:"output" toml:"output" yaml:"output"`
}

// EditorConfig holds configuration for template editing sessions
type EditorConfig struct {
	HistoryLimit int  `json:"history_limit" toml:"history_limit" yaml:"history_limit"`
	ClampToROI   bool `json:"clamp_to_roi" toml:"clamp_to_roi" yaml:"clamp_to_roi"`
}

// PredictConfig holds configuration for model-assisted keypoint predictions
type PredictConfig struct {
	Backend       string  `json:"backend" toml:"backend" yaml:"backend"`
	URL           string  `json:"url" toml:"url" yaml:"url"`
	Model         string  `json:"model" toml:"model" yaml:"model"`
	SendFormat    string  `json:"send_format" toml:"send_format" yaml:"send_format"`
	SendSize      int     `json:"send_size" toml:"send_size" yaml:"send_size"`
	SendQuality   int     `json:"send_quality" toml:"send_quality" yaml:"send_quality"`
	MinConfidence float64 `json:"min_confidence" toml:"min_confidence" yaml:"min_confidence"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format" toml:"default_format" yaml:"default_format"`
	Quality       int    `json:"quality" toml:"quality" yaml:"quality"`
	Lossless      bool   `json:"lossless" toml:"lossless" yaml:"lossless"`
	OutputDir     string `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	Suffix        string `json:"suffix" toml:"suffix" yaml:"suffix"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			HistoryLimit: history.DefaultLimit,
			ClampToROI:   true,
		},
		Render: render.DefaultConfig(),
		Predict: PredictConfig{
			Backend:       "ollama",
			URL:           "http://localhost:11434",
			Model:         "qwen2.5vl:7b",
			SendFormat:    "jpg",
			SendSize:      768,
			SendQuality:   85,
			MinConfidence: 0.3,
		},
		Output: OutputConfig{
			DefaultFormat: "png",
			Quality:       90,
			Lossless:      false,
			OutputDir:     "./output",
			Suffix:        "_pose",
		},
	}
}

// LoadFromFile loads configuration from a JSON, TOML or YAML file, chosen by
// extension. Missing keys keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		if _, err := toml.Decode(string(data), config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyEnvOverrides()
	return config, nil
}

// ApplyEnvOverrides lets POSE_TEMPLATE_BACKEND, POSE_TEMPLATE_URL and
// POSE_TEMPLATE_MODEL override the prediction backend
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("POSE_TEMPLATE_BACKEND"); v != "" {
		c.Predict.Backend = v
	}
	if v := os.Getenv("POSE_TEMPLATE_URL"); v != "" {
		c.Predict.URL = v
	}
	if v := os.Getenv("POSE_TEMPLATE_MODEL"); v != "" {
		c.Predict.Model = v
	}
}

// SaveToFile saves configuration in the format matching the file extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Editor.HistoryLimit < 1 {
		return fmt.Errorf("editor.history_limit must be positive")
	}

	if c.Render.NodeRadius <= 0 {
		return fmt.Errorf("render.node_radius must be positive")
	}

	if c.Render.LineWidth <= 0 {
		return fmt.Errorf("render.line_width must be positive")
	}

	switch c.Predict.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("predict.backend must be ollama or llamacpp, got %q", c.Predict.Backend)
	}

	if c.Predict.SendQuality < 1 || c.Predict.SendQuality > 100 {
		return fmt.Errorf("predict.send_quality must be between 1 and 100")
	}

	if c.Predict.MinConfidence < 0 || c.Predict.MinConfidence > 1 {
		return fmt.Errorf("predict.min_confidence must be between 0 and 1")
	}

	switch strings.ToLower(c.Output.DefaultFormat) {
	case "png", "jpg", "jpeg", "webp":
	default:
		return fmt.Errorf("output.default_format must be png, jpg or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "pose-template", "config.json")
}
