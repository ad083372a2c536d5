package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/smartsell/internal/engine"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// DatasetsHandler serves dataset metadata.
type DatasetsHandler struct {
	eng *engine.Engine
}

// NewDatasetsHandler creates a new DatasetsHandler.
func NewDatasetsHandler(eng *engine.Engine) *DatasetsHandler {
	return &DatasetsHandler{eng: eng}
}

// --- Input/Output types ---

// DatasetInfo describes one loaded dataset.
type DatasetInfo struct {
	ID       string          `json:"id"        example:"products"            doc:"Dataset identifier from the config file"`
	LoadID   string          `json:"load_id"                                 doc:"Identifier of the current snapshot"`
	Source   string          `json:"source"    example:"data/products.csv"   doc:"Path the snapshot was read from"`
	Rows     int             `json:"rows"      example:"1200"                doc:"Number of valid records"`
	Skipped  int             `json:"skipped"   example:"3"                   doc:"Rows excluded at load time"`
	Columns  []domain.Column `json:"columns"                                 doc:"Column names, kinds and roles"`
	ModTime  time.Time       `json:"mod_time"                                doc:"Source file modification time"`
	LoadedAt time.Time       `json:"loaded_at"                               doc:"When the snapshot was loaded"`
}

func datasetInfo(ds *domain.Dataset) DatasetInfo {
	return DatasetInfo{
		ID:       ds.ID,
		LoadID:   ds.LoadID,
		Source:   ds.Source,
		Rows:     ds.Len(),
		Skipped:  ds.Skipped(),
		Columns:  ds.Columns,
		ModTime:  ds.ModTime,
		LoadedAt: ds.LoadedAt,
	}
}

// ListDatasetsOutput is the response for listing datasets.
type ListDatasetsOutput struct {
	Body struct {
		Datasets []DatasetInfo `json:"datasets"`
	}
}

// GetDatasetInput is the input for getting a single dataset.
type GetDatasetInput struct {
	ID string `path:"id" doc:"Dataset identifier"`
}

// GetDatasetOutput is the response for getting a single dataset.
type GetDatasetOutput struct {
	Body struct {
		DatasetInfo
		Options  domain.FilterOptions        `json:"options"  doc:"Domain of the filter widgets"`
		Warnings []domain.DataQualityWarning `json:"warnings" doc:"Rows skipped at load time"`
	}
}

// --- Handlers ---

// ListDatasets returns every loaded dataset.
func (h *DatasetsHandler) ListDatasets(_ context.Context, _ *struct{}) (*ListDatasetsOutput, error) {
	resp := &ListDatasetsOutput{}
	resp.Body.Datasets = make([]DatasetInfo, 0)
	for _, ds := range h.eng.Datasets() {
		resp.Body.Datasets = append(resp.Body.Datasets, datasetInfo(ds))
	}
	return resp, nil
}

// GetDataset returns one dataset with its filter options and load warnings.
func (h *DatasetsHandler) GetDataset(_ context.Context, input *GetDatasetInput) (*GetDatasetOutput, error) {
	ds, err := h.eng.Dataset(input.ID)
	if err != nil {
		return nil, apiError("getting dataset", err)
	}
	opts, err := h.eng.Options(input.ID)
	if err != nil {
		return nil, apiError("getting dataset options", err)
	}

	resp := &GetDatasetOutput{}
	resp.Body.DatasetInfo = datasetInfo(ds)
	resp.Body.Options = opts
	resp.Body.Warnings = ds.Warnings
	if resp.Body.Warnings == nil {
		resp.Body.Warnings = []domain.DataQualityWarning{}
	}
	return resp, nil
}

// RegisterDatasetRoutes registers dataset endpoints with the Huma API.
func RegisterDatasetRoutes(api huma.API, h *DatasetsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-datasets",
		Method:      http.MethodGet,
		Path:        "/api/v1/datasets",
		Summary:     "List datasets",
		Description: "Returns every loaded dataset with row counts and columns.",
		Tags:        []string{"datasets"},
	}, h.ListDatasets)

	huma.Register(api, huma.Operation{
		OperationID: "get-dataset",
		Method:      http.MethodGet,
		Path:        "/api/v1/datasets/{id}",
		Summary:     "Get a dataset",
		Description: "Returns a dataset's metadata, filter options and the rows skipped at load time.",
		Tags:        []string{"datasets"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetDataset)
}
