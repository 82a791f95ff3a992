package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	// Clear optional overrides so ambient environment cannot leak in.
	for _, name := range []string{
		"SLEEP_TIME_INTERVAL_SECONDS", "UPDATE_WARNING_DAYS",
		"REMEDIATION_LABEL", "LOG_LEVEL", "LOG_FORMAT", "METRICS_LISTEN_ADDR",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("JIRA_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_USERNAME", "bot@example.com")
	t.Setenv("JIRA_APIKEY", "token")
	t.Setenv("JIRA_WORKSPACE_ID", "ws-1")
	t.Setenv("JIRA_PROJECT_KEY", "PROJ")
	t.Setenv("JIRA_ASSETS_OBJECT_TYPE_ID", "7")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ASSETSYNC_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultWarningWindow, cfg.WarningWindow)
	assert.Equal(t, "AssetUpdate", cfg.RemediationLabel)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsListenAddr, "metrics listener is off by default")
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ASSETSYNC_DATA_DIR", t.TempDir())
	t.Setenv("SLEEP_TIME_INTERVAL_SECONDS", "60")
	t.Setenv("UPDATE_WARNING_DAYS", "2")
	t.Setenv("REMEDIATION_LABEL", "NeedsUpdate")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("METRICS_LISTEN_ADDR", ":9188")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 48*time.Hour, cfg.WarningWindow)
	assert.Equal(t, "NeedsUpdate", cfg.RemediationLabel)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9188", cfg.MetricsListenAddr)
}

func TestLoadInvalidIntervalFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ASSETSYNC_DATA_DIR", t.TempDir())
	t.Setenv("SLEEP_TIME_INTERVAL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
}

func TestValidateMissingField(t *testing.T) {
	cfg := &Config{
		JiraURL:      "https://example.atlassian.net",
		JiraEmail:    "bot@example.com",
		JiraAPIToken: "token",
		WorkspaceID:  "ws-1",
		ProjectKey:   "PROJ",
	}
	err := cfg.Validate()
	assert.ErrorContains(t, err, "JIRA_ASSETS_OBJECT_TYPE_ID")
}

func TestRender(t *testing.T) {
	out := Render(TaskSummaryTemplate, map[string]string{"asset_name": "gitlab"})
	assert.Equal(t, "Update gitlab", out)

	out = Render(CommentReminder, map[string]string{"update_date": "2024-01-01"})
	assert.Contains(t, out, "2024-01-01")

	out = Render("no placeholders", nil)
	assert.Equal(t, "no placeholders", out)
}
