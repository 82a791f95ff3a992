package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avoylenko/jira-asset-sync/pkg/assets"
)

// AttributeFetcher provides the attribute schema used to bootstrap the
// attribute mapping file when it does not exist yet.
type AttributeFetcher interface {
	GetObjectTypeAttributes(ctx context.Context, objectTypeID string) ([]assets.ObjectTypeAttribute, error)
}

// Mappings holds the two lookup tables the reconciler needs: attribute id to
// semantic name, and responsible-person display name to Jira account id.
// Reads and reloads may happen from different goroutines (the fsnotify
// watcher reloads while a pass reads).
type Mappings struct {
	mu               sync.RWMutex
	attributeMapPath string
	assigneeMapPath  string
	attributes       map[string]string
	assignees        map[string]string
}

// NewStaticMappings builds an in-memory Mappings with fixed tables, for
// callers that do not work from mapping files.
func NewStaticMappings(attributes, assignees map[string]string) *Mappings {
	if attributes == nil {
		attributes = map[string]string{}
	}
	if assignees == nil {
		assignees = map[string]string{}
	}
	return &Mappings{attributes: attributes, assignees: assignees}
}

// LoadMappings reads both mapping files. A missing attribute file is
// bootstrapped from the live attribute schema and written back for the next
// start; a missing assignee file degrades to an empty mapping (unassigned
// issue creation), it is not fatal.
func LoadMappings(ctx context.Context, cfg *Config, fetcher AttributeFetcher) (*Mappings, error) {
	m := &Mappings{
		attributeMapPath: cfg.AttributeMapPath,
		assigneeMapPath:  cfg.AssigneeMapPath,
		attributes:       map[string]string{},
		assignees:        map[string]string{},
	}

	if _, err := os.Stat(cfg.AttributeMapPath); os.IsNotExist(err) {
		log.Info().Str("file", cfg.AttributeMapPath).Msg("Attribute mapping file not found, bootstrapping from Assets API")
		if err := m.bootstrapAttributes(ctx, cfg.ObjectTypeID, fetcher); err != nil {
			return nil, err
		}
	} else if err := m.loadAttributeFile(); err != nil {
		return nil, err
	}

	if err := m.loadAssigneeFile(); err != nil {
		log.Warn().Err(err).Str("file", cfg.AssigneeMapPath).Msg("Assignee mapping unavailable, issues will be created unassigned")
	}

	return m, nil
}

func (m *Mappings) bootstrapAttributes(ctx context.Context, objectTypeID string, fetcher AttributeFetcher) error {
	attrs, err := fetcher.GetObjectTypeAttributes(ctx, objectTypeID)
	if err != nil {
		return fmt.Errorf("fetch attribute schema: %w", err)
	}

	table := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		table[attr.ID.String()] = attr.Name
	}

	data, err := json.MarshalIndent(table, "", "    ")
	if err != nil {
		return fmt.Errorf("encode attribute mapping: %w", err)
	}
	if err := os.WriteFile(m.attributeMapPath, data, 0o644); err != nil {
		return fmt.Errorf("write attribute mapping file: %w", err)
	}

	m.mu.Lock()
	m.attributes = table
	m.mu.Unlock()

	log.Info().Int("attributes", len(table)).Str("file", m.attributeMapPath).Msg("Attribute mapping bootstrapped")
	return nil
}

func (m *Mappings) loadAttributeFile() error {
	table, err := readStringMap(m.attributeMapPath)
	if err != nil {
		return fmt.Errorf("load attribute mapping: %w", err)
	}

	m.mu.Lock()
	m.attributes = table
	m.mu.Unlock()
	return nil
}

func (m *Mappings) loadAssigneeFile() error {
	table, err := readStringMap(m.assigneeMapPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.assignees = table
	m.mu.Unlock()
	return nil
}

// Reload re-reads both mapping files, keeping the previous tables on error.
func (m *Mappings) Reload() {
	if err := m.loadAttributeFile(); err != nil {
		log.Error().Err(err).Msg("Attribute mapping reload failed, keeping previous table")
	}
	if err := m.loadAssigneeFile(); err != nil {
		log.Error().Err(err).Msg("Assignee mapping reload failed, keeping previous table")
	}
	log.Info().Msg("Mapping files reloaded")
}

// AttributeMap returns a snapshot of the attribute id to name table.
func (m *Mappings) AttributeMap() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(map[string]string, len(m.attributes))
	for id, name := range m.attributes {
		snapshot[id] = name
	}
	return snapshot
}

// AssigneeID resolves a responsible-person display name to a Jira account
// id. Empty result means "create unassigned".
func (m *Mappings) AssigneeID(name string) string {
	if name == "" {
		return ""
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assignees[name]
}

// readStringMap reads a flat JSON object, stringifying scalar values so both
// {"name": "id"} and {"name": 123} file shapes are accepted.
func readStringMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	table := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			table[key] = v
		case float64:
			table[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("parse %s: value for %q is not a scalar", path, key)
		}
	}
	return table, nil
}
