package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daybook/internal/links"
	"github.com/starford/daybook/internal/notion"
	"github.com/starford/daybook/internal/slack"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	HTTP       HTTPClientConfig  `yaml:"http"`
	Notion     NotionConfig      `yaml:"notion"`
	Buttondown ButtondownConfig  `yaml:"buttondown"`
	Slack      SlackConfig       `yaml:"slack"`
	Cache      CacheConfig       `yaml:"cache"`
	Assist     AssistConfig      `yaml:"assist"`
	Server     ServerConfig      `yaml:"server"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Assist.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

// ApplyEnv fills empty credentials from the environment.
func (c *Config) ApplyEnv() {
	setFromEnv(&c.Notion.Token, "NOTION_TOKEN")
	setFromEnv(&c.Notion.ParentPageID, "NOTION_PARENT_PAGE_ID")
	setFromEnv(&c.Buttondown.APIKey, "BUTTONDOWN_API_KEY")
	setFromEnv(&c.Slack.Token, "SLACK_BOT_TOKEN")
	if v := os.Getenv("SLACK_CHANNEL"); v != "" {
		c.Slack.Channel = v
	}
}

func setFromEnv(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatText, LogFormatJSON)),
	)
}

// HTTPClientConfig holds settings shared by the destination clients.
type HTTPClientConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the HTTP client configuration.
func (c *HTTPClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// NotionConfig holds the notes store settings. Token and ParentPageID are
// usually supplied through the environment.
type NotionConfig struct {
	Token            string   `yaml:"token"`
	ParentPageID     string   `yaml:"parent_page_id"`
	BaseURL          string   `yaml:"base_url"`
	Version          string   `yaml:"version"`
	InternalHosts    []string `yaml:"internal_hosts"`
	RedirectProperty string   `yaml:"redirect_property"`
}

// ButtondownConfig holds the newsletter settings.
type ButtondownConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// SlackConfig holds the chat settings.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
	BaseURL string `yaml:"base_url"`
}

// CacheConfig holds the link redirect cache settings. An empty path disables
// the cache.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// AssistConfig holds the LLM command line settings.
type AssistConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Command        string        `yaml:"command"`
	Model          string        `yaml:"model"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout"`
	GrammarTimeout time.Duration `yaml:"grammar_timeout"`
}

// Validate validates the assist configuration.
func (c *AssistConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.LookupTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.GrammarTimeout, validation.Min(time.Duration(0))),
	)
}

// ServerConfig holds the preview server configuration.
type ServerConfig struct {
	Port       int        `yaml:"port"`
	EntriesDir string     `yaml:"entries_dir"`
	Auth       AuthConfig `yaml:"auth"`
}

// Address returns HTTP server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.EntriesDir, validation.Required),
	); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatText,
		},
		HTTP: HTTPClientConfig{
			Timeout: 30 * time.Second,
		},
		Notion: NotionConfig{
			BaseURL:          notion.DefaultBaseURL,
			Version:          notion.DefaultVersion,
			InternalHosts:    []string{"notion.so", "www.notion.so"},
			RedirectProperty: links.DefaultRedirectProperty,
		},
		Slack: SlackConfig{
			Channel: slack.DefaultChannel,
		},
		Assist: AssistConfig{
			Command:        "llm",
			Model:          "sonar",
			LookupTimeout:  30 * time.Second,
			GrammarTimeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Port:       8080,
			EntriesDir: ".",
			Auth: AuthConfig{
				Mode: AuthModeDisabled,
			},
		},
	}
}
