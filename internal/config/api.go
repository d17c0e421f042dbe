package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/rhythmrisk/pkg/formatting"
	"github.com/JaimeStill/rhythmrisk/pkg/middleware"
	"github.com/JaimeStill/rhythmrisk/pkg/openapi"
	"github.com/JaimeStill/rhythmrisk/pkg/pagination"
	"github.com/JaimeStill/rhythmrisk/pkg/upload"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "RHYTHM_CORS_ENABLED",
	Origins:          "RHYTHM_CORS_ORIGINS",
	AllowedMethods:   "RHYTHM_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "RHYTHM_CORS_ALLOWED_HEADERS",
	AllowCredentials: "RHYTHM_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "RHYTHM_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultLimit: "RHYTHM_PAGINATION_DEFAULT_LIMIT",
	MaxLimit:     "RHYTHM_PAGINATION_MAX_LIMIT",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "RHYTHM_OPENAPI_TITLE",
	Description: "RHYTHM_OPENAPI_DESCRIPTION",
}

const (
	EnvAPIBasePath      = "RHYTHM_API_BASE_PATH"
	EnvAPIMaxUploadSize = "RHYTHM_API_MAX_UPLOAD_SIZE"
	EnvAPIAllowedTypes  = "RHYTHM_API_ALLOWED_TYPES"
)

// APIConfig holds API routing, upload policy, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	AllowedTypes  []string              `toml:"allowed_types"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes. Finalize guarantees it parses.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return upload.DefaultMaxSize
	}
	return size
}

// UploadRules returns the validation policy applied to uploaded files.
func (c *APIConfig) UploadRules() upload.Rules {
	return upload.Rules{
		MaxSize:      c.MaxUploadSizeBytes(),
		AllowedTypes: c.AllowedTypes,
	}
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if len(overlay.AllowedTypes) > 0 {
		c.AllowedTypes = overlay.AllowedTypes
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	defaults := upload.DefaultRules()

	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = defaults.AllowedTypes
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvAPIAllowedTypes); v != "" {
		var types []string
		for t := range strings.SplitSeq(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, t)
			}
		}
		c.AllowedTypes = types
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base_path must start with /: %q", c.BasePath)
	}
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	if len(c.AllowedTypes) == 0 {
		return fmt.Errorf("allowed_types required")
	}
	return nil
}
