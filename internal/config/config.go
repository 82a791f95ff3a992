// Package config loads daemon configuration from the environment and from
// the JSON mapping files that translate asset attribute ids and assignee
// names into their Jira counterparts.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Default timings. The warning window is how far ahead of a due date an
// asset is proactively flagged.
const (
	DefaultPollInterval  = 600 * time.Second
	DefaultWarningWindow = 5 * 24 * time.Hour
)

// Config is the full daemon configuration.
type Config struct {
	// Atlassian connection
	JiraURL      string
	JiraEmail    string
	JiraAPIToken string
	WorkspaceID  string
	ProjectKey   string
	ObjectTypeID string

	// Reconciliation behavior
	PollInterval      time.Duration
	WarningWindow     time.Duration
	ConnectionTimeout time.Duration
	RemediationLabel  string

	// Mapping files
	DataPath         string
	AttributeMapPath string
	AssigneeMapPath  string

	// Observability
	LogLevel          string
	LogFormat         string
	MetricsListenAddr string // empty disables the metrics listener
}

// Load reads configuration from .env files and the environment.
func Load() (*Config, error) {
	dataDir := "."
	if dir := os.Getenv("ASSETSYNC_DATA_DIR"); dir != "" {
		dataDir = dir
	}

	// Load .env from the data dir first, then the working directory.
	envFile := filepath.Join(dataDir, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Warn().Err(err).Str("file", envFile).Msg("Failed to load .env file")
		}
	}
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env from current directory")
	}

	cfg := &Config{
		JiraURL:           os.Getenv("JIRA_URL"),
		JiraEmail:         os.Getenv("JIRA_USERNAME"),
		JiraAPIToken:      os.Getenv("JIRA_APIKEY"),
		WorkspaceID:       os.Getenv("JIRA_WORKSPACE_ID"),
		ProjectKey:        os.Getenv("JIRA_PROJECT_KEY"),
		ObjectTypeID:      os.Getenv("JIRA_ASSETS_OBJECT_TYPE_ID"),
		PollInterval:      DefaultPollInterval,
		WarningWindow:     DefaultWarningWindow,
		ConnectionTimeout: 30 * time.Second,
		RemediationLabel:  "AssetUpdate",
		DataPath:          dataDir,
		AttributeMapPath:  filepath.Join(dataDir, "attributes.json"),
		AssigneeMapPath:   filepath.Join(dataDir, "user_mapping.json"),
		LogLevel:          "info",
		LogFormat:         "auto",
	}

	if v := os.Getenv("SLEEP_TIME_INTERVAL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			log.Warn().Str("value", v).Msg("Invalid SLEEP_TIME_INTERVAL_SECONDS, using default")
		} else {
			cfg.PollInterval = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("UPDATE_WARNING_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			log.Warn().Str("value", v).Msg("Invalid UPDATE_WARNING_DAYS, using default")
		} else {
			cfg.WarningWindow = time.Duration(days) * 24 * time.Hour
		}
	}
	if v := os.Getenv("REMEDIATION_LABEL"); v != "" {
		cfg.RemediationLabel = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("METRICS_LISTEN_ADDR"); v != "" {
		cfg.MetricsListenAddr = v
	}

	return cfg, nil
}

// Validate checks that every identifier required to talk to Jira is set.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"JIRA_URL", c.JiraURL},
		{"JIRA_USERNAME", c.JiraEmail},
		{"JIRA_APIKEY", c.JiraAPIToken},
		{"JIRA_WORKSPACE_ID", c.WorkspaceID},
		{"JIRA_PROJECT_KEY", c.ProjectKey},
		{"JIRA_ASSETS_OBJECT_TYPE_ID", c.ObjectTypeID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required configuration: %s", r.name)
		}
	}
	return nil
}
