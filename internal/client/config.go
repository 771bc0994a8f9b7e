package client

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

// Config holds the information needed to reach the tenant management and
// compliance endpoints.
type Config struct {
	Service Service `json:"service"`

	// baseDir is used to resolve relative paths such as Service.TokenFile.
	// If baseDir is empty, the current working directory is used.
	baseDir string `json:"-"`
}

// Service describes how to connect to and authenticate against the tenant
// APIs. The token is issued by an external sign-in flow; this tool only
// reads it.
type Service struct {
	// Server is the management API base URL (the part before /v1.0/...).
	Server string `json:"server"`
	// ComplianceServer is the compliance API base URL. Defaults to Server.
	ComplianceServer string `json:"complianceServer,omitempty"`
	// TokenFile is the path of the file holding the bearer token.
	TokenFile string `json:"tokenFile"`
}

func NewDefault() *Config {
	return &Config{}
}

func (c *Config) SetBaseDir(baseDir string) {
	c.baseDir = baseDir
}

func (c *Config) Validate() error {
	if c.Service.Server == "" {
		return fmt.Errorf("service.server must be set")
	}
	if _, err := url.Parse(c.Service.Server); err != nil {
		return fmt.Errorf("invalid service.server: %w", err)
	}
	if c.Service.ComplianceServer != "" {
		if _, err := url.Parse(c.Service.ComplianceServer); err != nil {
			return fmt.Errorf("invalid service.complianceServer: %w", err)
		}
	}
	if c.Service.TokenFile == "" {
		return fmt.Errorf("service.tokenFile must be set")
	}
	return nil
}

// tokenFilePath resolves the token file relative to the config file location.
func (c *Config) tokenFilePath() string {
	if filepath.IsAbs(c.Service.TokenFile) || c.baseDir == "" {
		return c.Service.TokenFile
	}
	return filepath.Join(c.baseDir, c.Service.TokenFile)
}

// DefaultConfigPath returns the default path of the client config file.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".m365ctl", "client.yaml")
	}
	return filepath.Join(home, ".m365ctl", "client.yaml")
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	config.SetBaseDir(filepath.Dir(filename))
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// WriteConfig writes a client config file with the given parameters.
func WriteConfig(filename string, server, complianceServer, tokenFile string) error {
	config := NewDefault()
	config.Service = Service{
		Server:           server,
		ComplianceServer: complianceServer,
		TokenFile:        tokenFile,
	}
	if err := config.Validate(); err != nil {
		return err
	}
	contents, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// NewHTTPClientFromConfig returns a new HTTP client from the given config.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     false,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return httpClient, nil
}
