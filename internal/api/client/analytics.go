package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// ViewResult is a filtered view as returned by the server.
type ViewResult struct {
	DatasetID string            `json:"dataset_id"`
	LoadID    string            `json:"load_id"`
	Spec      domain.FilterSpec `json:"spec"`
	Total     int               `json:"total"`
	Records   []domain.Record   `json:"records"`
}

// AggregateRequest describes a group-and-reduce request.
type AggregateRequest struct {
	Filter  domain.FilterSpec `json:"filter,omitzero"`
	GroupBy string            `json:"group_by"`
	Value   string            `json:"value,omitempty"`
	Reducer domain.Reducer    `json:"reducer"`
	Order   domain.Order      `json:"order,omitempty"`
}

// TrendRequest describes a period-ordered aggregate.
type TrendRequest struct {
	Filter  domain.FilterSpec `json:"filter,omitzero"`
	Period  string            `json:"period"`
	Value   string            `json:"value,omitempty"`
	Reducer domain.Reducer    `json:"reducer"`
}

// TopRequest describes a ranking request.
type TopRequest struct {
	Filter domain.FilterSpec `json:"filter,omitzero"`
	SortBy []domain.SortKey  `json:"sort_by"`
	Limit  int               `json:"limit,omitempty"`
}

// PicksRequest describes a price-optimization request. Nil thresholds use
// the server's configured defaults.
type PicksRequest struct {
	Filter     domain.FilterSpec `json:"filter,omitzero"`
	MinSuccess *float64          `json:"min_success,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

// LowPerformersRequest describes a low-performer request.
type LowPerformersRequest struct {
	Filter     domain.FilterSpec `json:"filter,omitzero"`
	MaxSuccess *float64          `json:"max_success,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

// HighPotentialRequest describes a high-potential request.
type HighPotentialRequest struct {
	Filter    domain.FilterSpec `json:"filter,omitzero"`
	MinRating *float64          `json:"min_rating,omitempty"`
	Limit     int               `json:"limit,omitempty"`
}

// OverpricedRequest describes an overpriced request.
type OverpricedRequest struct {
	Filter     domain.FilterSpec `json:"filter,omitzero"`
	Quantile   *float64          `json:"quantile,omitempty"`
	MaxSuccess *float64          `json:"max_success,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

// HighSuccessRequest describes a high-success request.
type HighSuccessRequest struct {
	Filter     domain.FilterSpec `json:"filter,omitzero"`
	MinSuccess *float64          `json:"min_success,omitempty"`
	Limit      int               `json:"limit,omitempty"`
}

// HierarchyRequest describes a nested grouping request.
type HierarchyRequest struct {
	Filter domain.FilterSpec `json:"filter,omitzero"`
	Levels []string          `json:"levels"`
	Value  string            `json:"value,omitempty"`
}

type filterRequest struct {
	Filter domain.FilterSpec `json:"filter,omitzero"`
	Limit  int               `json:"limit,omitempty"`
}

type recordsResponse struct {
	Records []domain.Record `json:"records"`
}

func datasetPath(id, op string) string {
	return "/api/v1/datasets/" + url.PathEscape(id) + "/" + op
}

// View applies spec to a dataset. A positive limit caps the records returned.
func (c *Client) View(ctx context.Context, id string, spec domain.FilterSpec, limit int) (*ViewResult, error) {
	var v ViewResult
	if err := c.post(ctx, datasetPath(id, "view"), filterRequest{Filter: spec, Limit: limit}, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Aggregate filters a dataset then groups and reduces it.
func (c *Client) Aggregate(ctx context.Context, id string, req AggregateRequest) (*domain.AggregateSeries, error) {
	var s domain.AggregateSeries
	if err := c.post(ctx, datasetPath(id, "aggregate"), req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Trend filters a dataset then aggregates it by period.
func (c *Client) Trend(ctx context.Context, id string, req TrendRequest) (*domain.AggregateSeries, error) {
	var s domain.AggregateSeries
	if err := c.post(ctx, datasetPath(id, "trend"), req, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Insight returns the pricing signal of a filtered dataset.
func (c *Client) Insight(ctx context.Context, id string, spec domain.FilterSpec) (*domain.Insight, error) {
	var in domain.Insight
	if err := c.post(ctx, datasetPath(id, "insight"), filterRequest{Filter: spec}, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Summary returns the KPI block of a filtered dataset.
func (c *Client) Summary(ctx context.Context, id string, spec domain.FilterSpec) (*domain.Summary, error) {
	var s domain.Summary
	if err := c.post(ctx, datasetPath(id, "summary"), filterRequest{Filter: spec}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Top ranks a filtered dataset.
func (c *Client) Top(ctx context.Context, id string, req TopRequest) ([]domain.Record, error) {
	var out recordsResponse
	if err := c.post(ctx, datasetPath(id, "top"), req, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Picks returns price-optimization picks.
func (c *Client) Picks(ctx context.Context, id string, req PicksRequest) ([]domain.Record, error) {
	return c.records(ctx, datasetPath(id, "picks"), req)
}

// LowPerformers returns low-success products, most expensive first.
func (c *Client) LowPerformers(ctx context.Context, id string, req LowPerformersRequest) ([]domain.Record, error) {
	return c.records(ctx, datasetPath(id, "low-performers"), req)
}

// HighPotential returns well-rated products selling below the median
// success.
func (c *Client) HighPotential(ctx context.Context, id string, req HighPotentialRequest) ([]domain.Record, error) {
	return c.records(ctx, datasetPath(id, "high-potential"), req)
}

// Overpriced returns products priced in the upper quantile with low success.
func (c *Client) Overpriced(ctx context.Context, id string, req OverpricedRequest) ([]domain.Record, error) {
	return c.records(ctx, datasetPath(id, "overpriced"), req)
}

// HighSuccess returns products above the success threshold.
func (c *Client) HighSuccess(ctx context.Context, id string, req HighSuccessRequest) ([]domain.Record, error) {
	return c.records(ctx, datasetPath(id, "high-success"), req)
}

func (c *Client) records(ctx context.Context, path string, req any) ([]domain.Record, error) {
	var out recordsResponse
	if err := c.post(ctx, path, req, &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Hierarchy returns a nested grouping of a filtered dataset.
func (c *Client) Hierarchy(ctx context.Context, id string, req HierarchyRequest) ([]domain.HierarchyNode, error) {
	var out struct {
		Nodes []domain.HierarchyNode `json:"nodes"`
	}
	if err := c.post(ctx, datasetPath(id, "hierarchy"), req, &out); err != nil {
		return nil, err
	}
	return out.Nodes, nil
}
