package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/glossaryqf/internal/glossary"
	"github.com/starford/glossaryqf/internal/sanitize"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workspace WorkspaceConfig   `yaml:"workspace"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	CORS      CORSConfig        `yaml:"cors"`
	Glossary  GlossaryConfig    `yaml:"glossary"`
	Import    ImportConfig      `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workspace.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Import.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkspaceConfig holds the directory glossary documents are stored in and
// watched for.
type WorkspaceConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the question bank database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
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

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GlossaryConfig holds the site-wide glossary flags written into every
// exported entry.
type GlossaryConfig struct {
	LinkEntries   bool `yaml:"link_entries"`
	CaseSensitive bool `yaml:"case_sensitive"`
	FullMatch     bool `yaml:"full_match"`
}

// Get implements glossary.Settings. Flags are rendered as "1" or "0".
func (c GlossaryConfig) Get(scope, key string) string {
	if scope != glossary.SettingsScope {
		return ""
	}
	switch key {
	case glossary.SettingLinkEntries:
		return flag(c.LinkEntries)
	case glossary.SettingCaseSensitive:
		return flag(c.CaseSensitive)
	case glossary.SettingFullMatch:
		return flag(c.FullMatch)
	}
	return ""
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ImportConfig controls how uploaded documents are read. CleanHTML and
// ConvertHTMLToMarkdown re-render HTML definitions, so neither is on by
// default.
type ImportConfig struct {
	MaxBytes              int64 `yaml:"max_bytes"`
	CleanHTML             bool  `yaml:"clean_html"`
	ConvertHTMLToMarkdown bool  `yaml:"convert_html_to_markdown"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxBytes, validation.Required, validation.Min(int64(1024))),
	)
}

// Policy returns the definition policy the importer applies.
func (c *ImportConfig) Policy() sanitize.Policy {
	return sanitize.Policy{
		CleanHTML:      c.CleanHTML,
		HTMLToMarkdown: c.ConvertHTMLToMarkdown,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Workspace: WorkspaceConfig{
			Path:  "./glossaries",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./glossaryqf.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Import: ImportConfig{
			MaxBytes: 32 << 20,
		},
	}
}
