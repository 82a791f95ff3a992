package reconciler

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/avoylenko/jira-asset-sync/pkg/jira"
)

type issueGetter interface {
	GetIssue(ctx context.Context, key string) (*jira.Issue, error)
}

// TicketCache memoizes issue lookups for the duration of one reconciliation
// pass. A nil entry records a "not found" outcome so a missing key is
// fetched at most once per pass. Lookups are single-flighted per key, so the
// cache stays correct even if asset processing is ever parallelized.
type TicketCache struct {
	mu      sync.RWMutex
	entries map[string]*jira.Issue
	group   singleflight.Group
	client  issueGetter
}

// NewTicketCache creates an empty cache backed by the given issue client.
func NewTicketCache(client issueGetter) *TicketCache {
	return &TicketCache{
		entries: map[string]*jira.Issue{},
		client:  client,
	}
}

// Get returns the issue for key, fetching it on first use. A missing issue
// yields (nil, nil) and is cached; transport errors are returned and not
// cached, so a later lookup may retry.
func (c *TicketCache) Get(ctx context.Context, key string) (*jira.Issue, error) {
	c.mu.RLock()
	issue, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return issue, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		issue, err := c.client.GetIssue(ctx, key)
		if err != nil {
			if errors.Is(err, jira.ErrNotFound) {
				c.store(key, nil)
				return (*jira.Issue)(nil), nil
			}
			return nil, err
		}
		c.store(key, issue)
		return issue, nil
	})
	if err != nil {
		return nil, err
	}
	issue, _ = result.(*jira.Issue)
	return issue, nil
}

// Reset discards all entries. Called once at the start of each pass; nothing
// survives across passes.
func (c *TicketCache) Reset() {
	c.mu.Lock()
	c.entries = map[string]*jira.Issue{}
	c.mu.Unlock()
}

func (c *TicketCache) store(key string, issue *jira.Issue) {
	c.mu.Lock()
	c.entries[key] = issue
	c.mu.Unlock()
}
