package internal

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appDirName = "chat-session"

	// EnvPrefix prefixes every environment variable the config reads
	EnvPrefix = "CHAT_"

	TransportProxy  = "proxy"
	TransportOpenAI = "openai"
)

// Config holds the client settings. Values come from defaults, then the YAML
// file, then the environment (a .env file is loaded first when present).
type Config struct {
	Variant     string `yaml:"variant" env:"VARIANT"`
	Transport   string `yaml:"transport" env:"TRANSPORT"`
	ServerURL   string `yaml:"server_url" env:"SERVER_URL"`
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH"`

	MaxMessages           int   `yaml:"max_messages" env:"MAX_MESSAGES"`
	MaxAttachmentMessages int   `yaml:"max_attachment_messages" env:"MAX_ATTACHMENT_MESSAGES"`
	StorageQuota          int64 `yaml:"storage_quota" env:"STORAGE_QUOTA"`

	RequestTimeout     time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	MaxImages          int           `yaml:"max_images" env:"MAX_IMAGES"`
	MaxAttachmentBytes int64         `yaml:"max_attachment_bytes" env:"MAX_ATTACHMENT_BYTES"`
	ImagePrompt        string        `yaml:"image_prompt" env:"IMAGE_PROMPT"`

	OpenAI OpenAIConfig `yaml:"openai" envPrefix:"OPENAI_"`
}

// OpenAIConfig configures the direct OpenAI transport
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"API_KEY"`
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	Model   string `yaml:"model" env:"MODEL"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Variant:               "gemini",
		Transport:             TransportProxy,
		ServerURL:             "http://localhost:3001",
		StoragePath:           DefaultStoragePath(),
		MaxMessages:           DefaultMaxMessages,
		MaxAttachmentMessages: DefaultMaxAttachmentMessages,
		StorageQuota:          DefaultQuota,
		RequestTimeout:        defaultRequestTimeout,
		MaxImages:             DefaultMaxImages,
		MaxAttachmentBytes:    10 << 20,
		ImagePrompt:           DefaultImagePrompt,
		OpenAI: OpenAIConfig{
			Model: defaultOpenAIModel,
		},
	}
}

// DefaultConfigDir returns the per-user directory for config and storage
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDirName)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library/Application Support", appDirName)
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, appDirName)
		}
		return filepath.Join(home, "AppData", "Roaming", appDirName)
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		return filepath.Join(home, ".config", appDirName)
	}
}

// DefaultStoragePath returns the default location of the storage database
func DefaultStoragePath() string {
	return filepath.Join(DefaultConfigDir(), "storage.db")
}

// DefaultConfigPath returns the config file read when no path is given
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LoadConfig builds the configuration. An explicit path must exist; with an
// empty path the default config file is read only if present.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("Failed to load .env file: %v", err)
	}
	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &ParseError{Source: "config", Key: path, Err: err}
	}
	LogDebug("Loaded config from %s", path)
	return nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	if _, err := LookupVariant(c.Variant); err != nil {
		return err
	}
	switch c.Transport {
	case TransportProxy:
		if strings.TrimSpace(c.ServerURL) == "" {
			return errors.New("config: server_url is required for the proxy transport")
		}
	case TransportOpenAI:
	default:
		return fmt.Errorf("config: unknown transport %q (want %s or %s)", c.Transport, TransportProxy, TransportOpenAI)
	}
	if c.StoragePath == "" {
		return errors.New("config: storage_path must not be empty")
	}
	if c.MaxMessages <= 0 || c.MaxAttachmentMessages <= 0 {
		return errors.New("config: message caps must be positive")
	}
	if c.MaxAttachmentMessages > c.MaxMessages {
		return fmt.Errorf("config: max_attachment_messages (%d) exceeds max_messages (%d)", c.MaxAttachmentMessages, c.MaxMessages)
	}
	if c.MaxImages <= 0 {
		return errors.New("config: max_images must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request_timeout must be positive")
	}
	return nil
}

// Limits returns the persistence caps
func (c *Config) Limits() Limits {
	return Limits{
		MaxMessages:           c.MaxMessages,
		MaxAttachmentMessages: c.MaxAttachmentMessages,
	}
}

// BridgeOptions returns the send-cycle settings
func (c *Config) BridgeOptions() BridgeOptions {
	return BridgeOptions{
		MaxImages:   c.MaxImages,
		ImagePrompt: c.ImagePrompt,
	}
}

// NewTransport builds the transport selected by the config
func (c *Config) NewTransport(v Variant) (Transport, error) {
	httpClient := &http.Client{Timeout: c.RequestTimeout}
	if c.Transport == TransportOpenAI {
		t, err := NewOpenAITransport(c.OpenAI.APIKey, c.OpenAI.BaseURL, c.OpenAI.Model, httpClient)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	t, err := NewProxyTransport(c.ServerURL, v, WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return t, nil
}
