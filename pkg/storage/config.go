package storage

import (
	"fmt"
	"os"
)

// Storage drivers.
const (
	DriverAzure  = "azure"
	DriverMemory = "memory"
)

// Config holds blob storage settings. The Azure driver authenticates with
// ConnectionString when set and otherwise with the default Azure credential
// chain against ServiceURL.
type Config struct {
	Driver           string `toml:"driver"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Driver           string
	ContainerName    string
	ConnectionString string
	ServiceURL       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
}

func (c *Config) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
}

func (c *Config) loadEnv(env *Env) {
	for dst, key := range map[*string]string{
		&c.Driver:           env.Driver,
		&c.ContainerName:    env.ContainerName,
		&c.ConnectionString: env.ConnectionString,
		&c.ServiceURL:       env.ServiceURL,
	} {
		if key == "" {
			continue
		}
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverMemory:
		return nil
	case DriverAzure:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}

	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString == "" && c.ServiceURL == "" {
		return fmt.Errorf("connection_string or service_url required")
	}
	return nil
}
