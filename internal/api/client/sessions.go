package client

import (
	"context"
	"net/url"
	"time"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// Session is a server-side filter session.
type Session struct {
	ID        string            `json:"id"`
	DatasetID string            `json:"dataset_id"`
	LoadID    string            `json:"load_id"`
	Spec      domain.FilterSpec `json:"spec"`
	ViewSize  int               `json:"view_size"`
	CreatedAt time.Time         `json:"created_at"`
	LastSeen  time.Time         `json:"last_seen"`
}

func sessionPath(id string) string {
	return "/api/v1/sessions/" + url.PathEscape(id)
}

// ListSessions returns the ids of live sessions.
func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.get(ctx, "/api/v1/sessions", &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

// CreateSession starts a session on a dataset.
func (c *Client) CreateSession(ctx context.Context, datasetID string, spec domain.FilterSpec) (*Session, error) {
	body := struct {
		DatasetID string            `json:"dataset_id"`
		Filter    domain.FilterSpec `json:"filter,omitzero"`
	}{DatasetID: datasetID, Filter: spec}

	var s Session
	if err := c.post(ctx, "/api/v1/sessions", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession returns a session by id.
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := c.get(ctx, sessionPath(id), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionFilter replaces a session's filter.
func (c *Client) UpdateSessionFilter(ctx context.Context, id string, spec domain.FilterSpec) (*Session, error) {
	var s Session
	if err := c.put(ctx, sessionPath(id)+"/filter", filterRequest{Filter: spec}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession ends a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.del(ctx, sessionPath(id), nil)
}
