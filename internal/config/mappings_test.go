package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoylenko/jira-asset-sync/pkg/assets"
)

type fakeFetcher struct {
	attrs []assets.ObjectTypeAttribute
	calls int
}

func (f *fakeFetcher) GetObjectTypeAttributes(ctx context.Context, objectTypeID string) ([]assets.ObjectTypeAttribute, error) {
	f.calls++
	return f.attrs, nil
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		ObjectTypeID:     "7",
		DataPath:         dir,
		AttributeMapPath: filepath.Join(dir, "attributes.json"),
		AssigneeMapPath:  filepath.Join(dir, "user_mapping.json"),
	}
}

func TestLoadMappingsBootstrapsAttributeFile(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{attrs: []assets.ObjectTypeAttribute{
		{ID: "134", Name: "Update"},
		{ID: "135", Name: "Name"},
	}}

	m, err := LoadMappings(context.Background(), cfg, fetcher)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, map[string]string{"134": "Update", "135": "Name"}, m.AttributeMap())

	// The bootstrap must persist the table for the next start.
	data, err := os.ReadFile(cfg.AttributeMapPath)
	require.NoError(t, err)
	var persisted map[string]string
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, "Update", persisted["134"])

	// A second load reads the file instead of the API.
	m2, err := LoadMappings(context.Background(), cfg, fetcher)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "existing file must not trigger a fetch")
	assert.Equal(t, m.AttributeMap(), m2.AttributeMap())
}

func TestLoadMappingsReadsAssigneeFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.AttributeMapPath, []byte(`{"134":"Update"}`), 0o644))
	require.NoError(t, os.WriteFile(cfg.AssigneeMapPath, []byte(`{"Jane Doe":"acc-1","Legacy User":0}`), 0o644))

	m, err := LoadMappings(context.Background(), cfg, &fakeFetcher{})
	require.NoError(t, err)

	assert.Equal(t, "acc-1", m.AssigneeID("Jane Doe"))
	assert.Equal(t, "0", m.AssigneeID("Legacy User"), "numeric ids are stringified")
	assert.Empty(t, m.AssigneeID("Unknown Person"))
	assert.Empty(t, m.AssigneeID(""))
}

func TestLoadMappingsMissingAssigneeFileIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.AttributeMapPath, []byte(`{"134":"Update"}`), 0o644))

	m, err := LoadMappings(context.Background(), cfg, &fakeFetcher{})
	require.NoError(t, err)
	assert.Empty(t, m.AssigneeID("Anyone"))
}

func TestReloadKeepsPreviousTableOnError(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.AttributeMapPath, []byte(`{"134":"Update"}`), 0o644))
	require.NoError(t, os.WriteFile(cfg.AssigneeMapPath, []byte(`{"Jane Doe":"acc-1"}`), 0o644))

	m, err := LoadMappings(context.Background(), cfg, &fakeFetcher{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(cfg.AttributeMapPath, []byte(`{"134":"Renamed"}`), 0o644))
	require.NoError(t, os.WriteFile(cfg.AssigneeMapPath, []byte(`not json`), 0o644))
	m.Reload()

	assert.Equal(t, map[string]string{"134": "Renamed"}, m.AttributeMap())
	assert.Equal(t, "acc-1", m.AssigneeID("Jane Doe"), "broken file must not wipe the previous table")
}
