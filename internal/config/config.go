package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

// Config carries process-level settings shared by every subcommand.
// Connection settings live in the client config file, not here.
type Config struct {
	LogLevel       string        `envconfig:"M365CTL_LOG_LEVEL" default:"info"`
	PollInterval   time.Duration `envconfig:"M365CTL_POLL_INTERVAL" default:"10s"`
	FetchRetryCap  int           `envconfig:"M365CTL_FETCH_RETRY_CAP" default:"5"`
	ExportDir      string        `envconfig:"M365CTL_EXPORT_DIR" default:"."`
	RemediationLog string        `envconfig:"M365CTL_REMEDIATION_LOG" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
