package client

import (
	"context"
	"net/url"
	"time"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// Dataset is the server's description of a loaded dataset.
type Dataset struct {
	ID       string          `json:"id"`
	LoadID   string          `json:"load_id"`
	Source   string          `json:"source"`
	Rows     int             `json:"rows"`
	Skipped  int             `json:"skipped"`
	Columns  []domain.Column `json:"columns"`
	ModTime  time.Time       `json:"mod_time"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// DatasetDetail adds filter options and load warnings to a Dataset.
type DatasetDetail struct {
	Dataset
	Options  domain.FilterOptions        `json:"options"`
	Warnings []domain.DataQualityWarning `json:"warnings"`
}

// ListDatasets returns every loaded dataset.
func (c *Client) ListDatasets(ctx context.Context) ([]Dataset, error) {
	var out struct {
		Datasets []Dataset `json:"datasets"`
	}
	if err := c.get(ctx, "/api/v1/datasets", &out); err != nil {
		return nil, err
	}
	return out.Datasets, nil
}

// GetDataset returns one dataset with its filter options.
func (c *Client) GetDataset(ctx context.Context, id string) (*DatasetDetail, error) {
	var d DatasetDetail
	if err := c.get(ctx, "/api/v1/datasets/"+url.PathEscape(id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}
