// Package assets is a client for the Jira Service Management Assets
// (workspace object) API: AQL queries, object type attribute schemas and
// object-to-issue links.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"
)

// ClientConfig holds configuration for the Assets client.
type ClientConfig struct {
	BaseURL     string // e.g. https://your-domain.atlassian.net
	Email       string
	APIToken    string
	WorkspaceID string
	Timeout     time.Duration
}

// Client represents a JSM Assets workspace API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	email      string
	apiToken   string

	retryInitial time.Duration
	retryMax     uint64
}

// NewClient creates a new Assets API client scoped to one workspace.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("assets client requires BaseURL, Email and APIToken")
	}
	if cfg.WorkspaceID == "" {
		return nil, fmt.Errorf("assets client requires WorkspaceID")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		baseURL:      fmt.Sprintf("%s/gateway/api/jsm/assets/workspace/%s/v1", base, cfg.WorkspaceID),
		httpClient:   &http.Client{Timeout: timeout},
		email:        cfg.Email,
		apiToken:     cfg.APIToken,
		retryInitial: 500 * time.Millisecond,
		retryMax:     3,
	}, nil
}

type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("assets: API error %d: %s", e.Status, e.Body)
}

func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	var respBody []byte
	op := func() error {
		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.email, c.apiToken)
		req.Header.Set("Accept", "application/json")
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return &apiError{Status: resp.StatusCode, Body: string(data)}
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(&apiError{Status: resp.StatusCode, Body: string(data)})
		}
		respBody = data
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("wait", wait).Str("path", path).Msg("Assets request failed, retrying")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.retryMax), ctx), notify); err != nil {
		return nil, err
	}
	return respBody, nil
}

// QueryAQL runs an AQL query and returns the matching objects.
func (c *Client) QueryAQL(ctx context.Context, query string) ([]Object, error) {
	data, err := c.request(ctx, http.MethodPost, "/object/aql", map[string]string{"qlQuery": query})
	if err != nil {
		return nil, fmt.Errorf("aql query: %w", err)
	}

	var result struct {
		Values []Object `json:"values"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse aql response: %w", err)
	}
	return result.Values, nil
}

// GetObject fetches one asset object by id.
func (c *Client) GetObject(ctx context.Context, objectID string) (*Object, error) {
	data, err := c.request(ctx, http.MethodGet, "/object/"+url.PathEscape(objectID), nil)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectID, err)
	}

	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse object %s: %w", objectID, err)
	}
	return &obj, nil
}

// GetObjectTypeAttributes returns the attribute definitions of an object type.
func (c *Client) GetObjectTypeAttributes(ctx context.Context, objectTypeID string) ([]ObjectTypeAttribute, error) {
	data, err := c.request(ctx, http.MethodGet, "/objecttype/"+url.PathEscape(objectTypeID)+"/attributes", nil)
	if err != nil {
		return nil, fmt.Errorf("get object type %s attributes: %w", objectTypeID, err)
	}

	var attrs []ObjectTypeAttribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parse object type %s attributes: %w", objectTypeID, err)
	}
	return attrs, nil
}

// GetConnectedTickets lists the Jira issues linked to an asset object.
func (c *Client) GetConnectedTickets(ctx context.Context, objectID string) ([]ConnectedTicket, error) {
	data, err := c.request(ctx, http.MethodGet, "/objectconnectedtickets/"+url.PathEscape(objectID)+"/tickets", nil)
	if err != nil {
		return nil, fmt.Errorf("get connected tickets for %s: %w", objectID, err)
	}

	var result struct {
		Tickets []ConnectedTicket `json:"tickets"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse connected tickets for %s: %w", objectID, err)
	}
	return result.Tickets, nil
}

// LinkIssue links a Jira issue to an asset object.
func (c *Client) LinkIssue(ctx context.Context, objectID, issueKey string) error {
	_, err := c.request(ctx, http.MethodPost, "/object/"+url.PathEscape(objectID)+"/link", map[string]string{"issueKey": issueKey})
	if err != nil {
		return fmt.Errorf("link issue %s to object %s: %w", issueKey, objectID, err)
	}
	return nil
}

// UnlinkIssue removes the link between a Jira issue and an asset object.
func (c *Client) UnlinkIssue(ctx context.Context, objectID, issueKey string) error {
	_, err := c.request(ctx, http.MethodDelete, "/object/"+url.PathEscape(objectID)+"/unlink/"+url.PathEscape(issueKey), nil)
	if err != nil {
		return fmt.Errorf("unlink issue %s from object %s: %w", issueKey, objectID, err)
	}
	return nil
}

// BuildAQL renders a deterministic AQL expression from field filters. List
// values become IN clauses, strings are quoted, everything else is printed
// verbatim.
func BuildAQL(filters map[string]any) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	for _, field := range keys {
		switch value := filters[field].(type) {
		case []string:
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", field, strings.Join(value, ", ")))
		case string:
			conditions = append(conditions, fmt.Sprintf("%s = '%s'", field, value))
		default:
			conditions = append(conditions, fmt.Sprintf("%s = %v", field, value))
		}
	}
	return strings.Join(conditions, " AND ")
}
