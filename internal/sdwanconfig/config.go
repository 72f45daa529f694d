// Package sdwanconfig holds the connection configuration the outer CLI
// collects and hands to the engine (spec.md §6: address, user, password,
// port, tenant, timeout are outer-CLI inputs). Loading follows the
// teacher's config.New(file) shape: read, unmarshal, validate, set
// defaults.
package sdwanconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

// Config is the connection/runtime configuration threaded through the
// orchestrator (spec.md §5 "Global mutable state" design note: no package
// singletons, a context object instead).
type Config struct {
	Address  string        `yaml:"address,omitempty"`
	Port     int           `yaml:"port,omitempty"`
	User     string        `yaml:"user,omitempty"`
	Password string        `yaml:"password,omitempty"`
	Tenant   string        `yaml:"tenant,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`

	// RootDir is the base directory under which workdirs are resolved when
	// a relative path is given; overridden by SASTRE_ROOT_DIR.
	RootDir string `yaml:"root_dir,omitempty"`

	// VerifyTLS disables the default "skip server certificate verification"
	// behavior documented in spec.md §4.A. Off (verification skipped) by
	// default because controllers frequently ship self-signed certs.
	VerifyTLS bool `yaml:"verify_tls,omitempty"`
}

const (
	defaultPort    = 8443
	defaultTimeout = 300 * time.Second
)

// FromFile loads a YAML config file over the environment-derived config
// (FromEnv), so keys the file leaves out keep their environment values, and
// applies defaults, mirroring the teacher's config.New(file string)
// (*Config, error).
func FromFile(file string) (*Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}
	c := FromEnv()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", file, err)
	}
	c.setDefaults()
	return c, nil
}

// FromEnv builds a Config from environment variables, the documented
// outer-CLI binding surface (spec.md §6).
func FromEnv() *Config {
	c := &Config{
		Address:  os.Getenv("SASTRE_ADDRESS"),
		User:     os.Getenv("SASTRE_USER"),
		Password: os.Getenv("SASTRE_PASSWORD"),
		Tenant:   os.Getenv("SASTRE_TENANT"),
		RootDir:  os.Getenv("SASTRE_ROOT_DIR"),
	}
	if p := os.Getenv("SASTRE_PORT"); p != "" {
		fmt.Sscanf(p, "%d", &c.Port)
	}
	if t := os.Getenv("SASTRE_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			c.Timeout = d
		}
	}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.RootDir == "" {
		home, err := homedir.Dir()
		if err == nil {
			c.RootDir = filepath.Join(home, ".sastre")
		} else {
			c.RootDir = "."
		}
	}
}

// ResolveWorkdir joins a relative workdir name under RootDir; an absolute
// path is returned unchanged.
func (c *Config) ResolveWorkdir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.RootDir, name)
}

// BaseURL returns the controller's base REST URL.
func (c *Config) BaseURL() string {
	return fmt.Sprintf("https://%s:%d", c.Address, c.Port)
}
