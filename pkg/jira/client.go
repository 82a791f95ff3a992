// Package jira is a minimal Jira Cloud REST v2 client covering the issue
// operations needed to keep remediation tickets in sync: fetch, create,
// comment, and workflow transitions.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned by GetIssue when the issue does not exist.
var ErrNotFound = errors.New("jira: issue not found")

// ClientConfig holds configuration for the Jira client.
type ClientConfig struct {
	BaseURL  string // e.g. https://your-domain.atlassian.net
	Email    string
	APIToken string
	Timeout  time.Duration
}

// Client represents a Jira REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	email      string
	apiToken   string

	// Retry tuning, overridden in tests.
	retryInitial time.Duration
	retryMax     uint64
}

// NewClient creates a new Jira API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return nil, fmt.Errorf("jira client requires BaseURL, Email and APIToken")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
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
	return fmt.Sprintf("jira: API error %d: %s", e.Status, e.Body)
}

// request performs one API call with capped exponential retry on network
// failures and 5xx responses. 4xx responses are permanent.
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
		log.Warn().Err(err).Dur("wait", wait).Str("path", path).Msg("Jira request failed, retrying")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.retryMax), ctx), notify); err != nil {
		return nil, err
	}
	return respBody, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.request(ctx, http.MethodPost, path, payload)
}

// GetIssue fetches a single issue by key. Returns ErrNotFound for unknown keys.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	data, err := c.get(ctx, "/rest/api/2/issue/"+url.PathEscape(key))
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, fmt.Errorf("parse issue %s: %w", key, err)
	}
	return &issue, nil
}

// CreateIssue submits a new issue and returns the created key.
func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) (*CreatedIssue, error) {
	if req.ProjectKey == "" || req.Summary == "" || req.Description == "" {
		return nil, fmt.Errorf("project key, summary and description are required")
	}

	issueType := req.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	fields := map[string]any{
		"project":     map[string]string{"key": req.ProjectKey},
		"summary":     req.Summary,
		"description": req.Description,
		"issuetype":   map[string]string{"name": issueType},
	}
	if req.AssigneeID != "" {
		fields["assignee"] = map[string]string{"id": req.AssigneeID}
	}
	if req.DueDate != "" {
		fields["duedate"] = req.DueDate
	}
	if len(req.Labels) > 0 {
		fields["labels"] = req.Labels
	}
	for id, value := range req.CustomFields {
		fields[id] = value
	}

	data, err := c.post(ctx, "/rest/api/2/issue", map[string]any{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	var created CreatedIssue
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("parse creation response: %w", err)
	}
	if created.Key == "" {
		return nil, fmt.Errorf("creation response missing issue key: %s", string(data))
	}
	return &created, nil
}

// UpdateIssue applies a partial field update to an issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	_, err := c.request(ctx, http.MethodPut, "/rest/api/2/issue/"+url.PathEscape(key), map[string]any{"fields": fields})
	if err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// AddComment posts a comment on an issue.
func (c *Client) AddComment(ctx context.Context, key, body string) error {
	_, err := c.post(ctx, "/rest/api/2/issue/"+url.PathEscape(key)+"/comment", map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("add comment to %s: %w", key, err)
	}
	return nil
}

// GetTransitions lists the workflow transitions currently available on an issue.
func (c *Client) GetTransitions(ctx context.Context, key string) ([]Transition, error) {
	data, err := c.get(ctx, "/rest/api/2/issue/"+url.PathEscape(key)+"/transitions")
	if err != nil {
		return nil, fmt.Errorf("get transitions for %s: %w", key, err)
	}

	var result struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse transitions for %s: %w", key, err)
	}
	return result.Transitions, nil
}

// TransitionIssueByName moves an issue through the transition with the given
// name. Fails if the workflow does not offer that transition from the issue's
// current status.
func (c *Client) TransitionIssueByName(ctx context.Context, key, name string) error {
	transitions, err := c.GetTransitions(ctx, key)
	if err != nil {
		return err
	}

	var id string
	for _, t := range transitions {
		if t.Name == name {
			id = t.ID
			break
		}
	}
	if id == "" {
		return fmt.Errorf("transition %q not found for issue %s", name, key)
	}

	payload := map[string]any{"transition": map[string]string{"id": id}}
	if _, err := c.post(ctx, "/rest/api/2/issue/"+url.PathEscape(key)+"/transitions", payload); err != nil {
		return fmt.Errorf("transition %s to %q: %w", key, name, err)
	}

	log.Debug().Str("issue", key).Str("transition", name).Msg("Issue transitioned")
	return nil
}
