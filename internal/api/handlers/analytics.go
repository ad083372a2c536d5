package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/smartsell/internal/config"
	"github.com/donaldgifford/smartsell/internal/engine"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// AnalyticsHandler runs filter-then-compute operations on a dataset.
type AnalyticsHandler struct {
	eng      *engine.Engine
	insights config.InsightsConfig
}

// NewAnalyticsHandler creates a new AnalyticsHandler. Thresholds and limits
// that a request omits fall back to insights.
func NewAnalyticsHandler(eng *engine.Engine, insights config.InsightsConfig) *AnalyticsHandler {
	return &AnalyticsHandler{eng: eng, insights: insights}
}

// --- Input/Output types ---

// DatasetPath identifies the dataset of an analytics request.
type DatasetPath struct {
	ID string `path:"id" doc:"Dataset identifier"`
}

// ViewInput is the input for applying filters.
type ViewInput struct {
	DatasetPath
	Body struct {
		Filter domain.FilterSpec `json:"filter,omitempty" doc:"Filter constraints"`
		Limit  int               `json:"limit,omitempty"  doc:"Maximum records returned; 0 returns all" minimum:"0"`
	}
}

// ViewOutput is the response for applying filters.
type ViewOutput struct {
	Body struct {
		DatasetID string            `json:"dataset_id"`
		LoadID    string            `json:"load_id"`
		Spec      domain.FilterSpec `json:"spec"  doc:"Effective spec, defaults applied"`
		Total     int               `json:"total" doc:"Number of matching records"`
		Records   []domain.Record   `json:"records"`
	}
}

// AggregateInput is the input for grouping and reducing a view.
type AggregateInput struct {
	DatasetPath
	Body struct {
		Filter  domain.FilterSpec `json:"filter,omitempty"`
		GroupBy string            `json:"group_by"         doc:"Categorical column to group by"      example:"Category"`
		Value   string            `json:"value,omitempty"  doc:"Numeric column to reduce; optional for count" example:"Revenue"`
		Reducer domain.Reducer    `json:"reducer"          doc:"mean, sum, count, min or max"        example:"sum"`
		Order   domain.Order      `json:"order,omitempty"  doc:"key, value_asc or value_desc; default keeps first appearance"`
	}
}

// TrendInput is the input for a period-ordered aggregate.
type TrendInput struct {
	DatasetPath
	Body struct {
		Filter  domain.FilterSpec `json:"filter,omitempty"`
		Period  string            `json:"period"          doc:"Period column, numeric or text" example:"Year"`
		Value   string            `json:"value,omitempty" doc:"Numeric column to reduce; optional for count"`
		Reducer domain.Reducer    `json:"reducer"         doc:"mean, sum, count, min or max"`
	}
}

// SeriesOutput is the response for aggregate and trend requests.
type SeriesOutput struct {
	Body domain.AggregateSeries
}

// FilterInput is the input for operations that take only a filter.
type FilterInput struct {
	DatasetPath
	Body struct {
		Filter domain.FilterSpec `json:"filter,omitempty"`
	}
}

// InsightOutput is the response for the pricing insight.
type InsightOutput struct {
	Body domain.Insight
}

// SummaryOutput is the response for the KPI summary.
type SummaryOutput struct {
	Body domain.Summary
}

// TopInput is the input for ranking a view.
type TopInput struct {
	DatasetPath
	Body struct {
		Filter domain.FilterSpec `json:"filter,omitempty"`
		SortBy []domain.SortKey  `json:"sort_by"         doc:"Sort keys, most significant first" minItems:"1"`
		Limit  int               `json:"limit,omitempty" doc:"Maximum records returned (default from config)" minimum:"0"`
	}
}

// PicksInput is the input for price-optimization picks.
type PicksInput struct {
	DatasetPath
	Body struct {
		Filter     domain.FilterSpec `json:"filter,omitempty"`
		MinSuccess *float64          `json:"min_success,omitempty" doc:"Success percentage a pick must exceed (default from config)"`
		Limit      int               `json:"limit,omitempty"       doc:"Maximum picks returned (default from config)" minimum:"0"`
	}
}

// LowPerformersInput is the input for the low-performer list.
type LowPerformersInput struct {
	DatasetPath
	Body struct {
		Filter     domain.FilterSpec `json:"filter,omitempty"`
		MaxSuccess *float64          `json:"max_success,omitempty" doc:"Success percentage a product must fall below (default from config)"`
		Limit      int               `json:"limit,omitempty"       doc:"Maximum records returned (default from config)" minimum:"0"`
	}
}

// HighPotentialInput is the input for the high-potential list.
type HighPotentialInput struct {
	DatasetPath
	Body struct {
		Filter    domain.FilterSpec `json:"filter,omitempty"`
		MinRating *float64          `json:"min_rating,omitempty" doc:"Minimum rating (default from config)"`
		Limit     int               `json:"limit,omitempty"      doc:"Maximum records returned (default from config)" minimum:"0"`
	}
}

// OverpricedInput is the input for the overpriced list.
type OverpricedInput struct {
	DatasetPath
	Body struct {
		Filter     domain.FilterSpec `json:"filter,omitempty"`
		Quantile   *float64          `json:"quantile,omitempty"    doc:"Price quantile a product must exceed (default from config)" minimum:"0" maximum:"1"`
		MaxSuccess *float64          `json:"max_success,omitempty" doc:"Success percentage a product must fall below (default from config)"`
		Limit      int               `json:"limit,omitempty"       doc:"Maximum records returned (default from config)" minimum:"0"`
	}
}

// HighSuccessInput is the input for the high-success list.
type HighSuccessInput struct {
	DatasetPath
	Body struct {
		Filter     domain.FilterSpec `json:"filter,omitempty"`
		MinSuccess *float64          `json:"min_success,omitempty" doc:"Success percentage a product must exceed (default from config)"`
		Limit      int               `json:"limit,omitempty"       doc:"Maximum records returned (default from config)" minimum:"0"`
	}
}

// RecordsOutput is the response for operations returning a record list.
type RecordsOutput struct {
	Body struct {
		Records []domain.Record `json:"records"`
	}
}

// HierarchyInput is the input for nested grouping.
type HierarchyInput struct {
	DatasetPath
	Body struct {
		Filter domain.FilterSpec `json:"filter,omitempty"`
		Levels []string          `json:"levels"          doc:"Categorical columns, outermost first" minItems:"1"`
		Value  string            `json:"value,omitempty" doc:"Numeric column summed per node; count when empty"`
	}
}

// HierarchyOutput is the response for nested grouping.
type HierarchyOutput struct {
	Body struct {
		Nodes []domain.HierarchyNode `json:"nodes"`
	}
}

// --- Handlers ---

// View applies the filter and returns the matching records.
func (h *AnalyticsHandler) View(ctx context.Context, input *ViewInput) (*ViewOutput, error) {
	v, err := h.eng.View(ctx, input.ID, input.Body.Filter)
	if err != nil {
		return nil, apiError("applying filters", err)
	}

	resp := &ViewOutput{}
	resp.Body.DatasetID = v.DatasetID
	resp.Body.LoadID = v.LoadID
	resp.Body.Spec = v.Spec
	resp.Body.Total = v.Len()
	resp.Body.Records = v.Records
	if input.Body.Limit > 0 && input.Body.Limit < len(v.Records) {
		resp.Body.Records = v.Records[:input.Body.Limit]
	}
	return resp, nil
}

// Aggregate groups the filtered view and reduces each group.
func (h *AnalyticsHandler) Aggregate(ctx context.Context, input *AggregateInput) (*SeriesOutput, error) {
	s, err := h.eng.Aggregate(ctx, input.ID, input.Body.Filter, engine.AggregateRequest{
		GroupBy: input.Body.GroupBy,
		Value:   input.Body.Value,
		Reducer: input.Body.Reducer,
		Order:   input.Body.Order,
	})
	if err != nil {
		return nil, apiError("aggregating", err)
	}
	return &SeriesOutput{Body: s}, nil
}

// Trend aggregates the filtered view by period.
func (h *AnalyticsHandler) Trend(ctx context.Context, input *TrendInput) (*SeriesOutput, error) {
	s, err := h.eng.Trend(ctx, input.ID, input.Body.Filter, input.Body.Period, input.Body.Value, input.Body.Reducer)
	if err != nil {
		return nil, apiError("computing trend", err)
	}
	return &SeriesOutput{Body: s}, nil
}

// Insight compares the filtered view's mean price with the dataset median.
func (h *AnalyticsHandler) Insight(ctx context.Context, input *FilterInput) (*InsightOutput, error) {
	in, err := h.eng.Insight(ctx, input.ID, input.Body.Filter)
	if err != nil {
		return nil, apiError("deriving insight", err)
	}
	return &InsightOutput{Body: in}, nil
}

// Summary returns the KPI block of the filtered view.
func (h *AnalyticsHandler) Summary(ctx context.Context, input *FilterInput) (*SummaryOutput, error) {
	s, err := h.eng.Summary(ctx, input.ID, input.Body.Filter)
	if err != nil {
		return nil, apiError("summarizing", err)
	}
	return &SummaryOutput{Body: s}, nil
}

// Top ranks the filtered view.
func (h *AnalyticsHandler) Top(ctx context.Context, input *TopInput) (*RecordsOutput, error) {
	limit := input.Body.Limit
	if limit == 0 {
		limit = h.insights.TopLimit
	}

	rs, err := h.eng.Top(ctx, input.ID, input.Body.Filter, input.Body.SortBy, limit)
	if err != nil {
		return nil, apiError("ranking", err)
	}
	return recordsOutput(rs), nil
}

// Picks returns price-optimization picks from the filtered view.
func (h *AnalyticsHandler) Picks(ctx context.Context, input *PicksInput) (*RecordsOutput, error) {
	minSuccess := h.insights.OptimizationMinSuccess
	if input.Body.MinSuccess != nil {
		minSuccess = *input.Body.MinSuccess
	}
	limit := input.Body.Limit
	if limit == 0 {
		limit = h.insights.OptimizationLimit
	}

	rs, err := h.eng.Picks(ctx, input.ID, input.Body.Filter, minSuccess, limit)
	if err != nil {
		return nil, apiError("selecting picks", err)
	}
	return recordsOutput(rs), nil
}

// LowPerformers lists low-success products from the filtered view.
func (h *AnalyticsHandler) LowPerformers(ctx context.Context, input *LowPerformersInput) (*RecordsOutput, error) {
	maxSuccess := h.insights.OptimizationMinSuccess
	if input.Body.MaxSuccess != nil {
		maxSuccess = *input.Body.MaxSuccess
	}
	limit := input.Body.Limit
	if limit == 0 {
		limit = h.insights.TopLimit
	}

	rs, err := h.eng.LowPerformers(ctx, input.ID, input.Body.Filter, maxSuccess, limit)
	if err != nil {
		return nil, apiError("listing low performers", err)
	}
	return recordsOutput(rs), nil
}

// HighPotential lists well-rated products selling below the median success.
func (h *AnalyticsHandler) HighPotential(ctx context.Context, input *HighPotentialInput) (*RecordsOutput, error) {
	minRating := valueOr(input.Body.MinRating, h.insights.HighPotentialMinRating)

	rs, err := h.eng.HighPotential(ctx, input.ID, input.Body.Filter, minRating, h.limit(input.Body.Limit))
	if err != nil {
		return nil, apiError("listing high-potential products", err)
	}
	return recordsOutput(rs), nil
}

// Overpriced lists products priced in the upper quantile with low success.
func (h *AnalyticsHandler) Overpriced(ctx context.Context, input *OverpricedInput) (*RecordsOutput, error) {
	q := valueOr(input.Body.Quantile, h.insights.OverpricedQuantile)
	maxSuccess := valueOr(input.Body.MaxSuccess, h.insights.OverpricedMaxSuccess)

	rs, err := h.eng.Overpriced(ctx, input.ID, input.Body.Filter, q, maxSuccess, h.limit(input.Body.Limit))
	if err != nil {
		return nil, apiError("listing overpriced products", err)
	}
	return recordsOutput(rs), nil
}

// HighSuccess lists products above the success threshold.
func (h *AnalyticsHandler) HighSuccess(ctx context.Context, input *HighSuccessInput) (*RecordsOutput, error) {
	minSuccess := valueOr(input.Body.MinSuccess, h.insights.HighSuccessMin)

	rs, err := h.eng.HighSuccess(ctx, input.ID, input.Body.Filter, minSuccess, h.limit(input.Body.Limit))
	if err != nil {
		return nil, apiError("listing high-success products", err)
	}
	return recordsOutput(rs), nil
}

func (h *AnalyticsHandler) limit(n int) int {
	if n == 0 {
		return h.insights.TopLimit
	}
	return n
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Hierarchy nests the filtered view by the requested levels.
func (h *AnalyticsHandler) Hierarchy(ctx context.Context, input *HierarchyInput) (*HierarchyOutput, error) {
	nodes, err := h.eng.Hierarchy(ctx, input.ID, input.Body.Filter, input.Body.Levels, input.Body.Value)
	if err != nil {
		return nil, apiError("building hierarchy", err)
	}

	resp := &HierarchyOutput{}
	resp.Body.Nodes = nodes
	if resp.Body.Nodes == nil {
		resp.Body.Nodes = []domain.HierarchyNode{}
	}
	return resp, nil
}

func recordsOutput(rs []domain.Record) *RecordsOutput {
	resp := &RecordsOutput{}
	resp.Body.Records = rs
	if resp.Body.Records == nil {
		resp.Body.Records = []domain.Record{}
	}
	return resp
}

// RegisterAnalyticsRoutes registers the filter-then-compute endpoints with
// the Huma API.
func RegisterAnalyticsRoutes(api huma.API, h *AnalyticsHandler) {
	errs := []int{http.StatusNotFound, http.StatusUnprocessableEntity}

	huma.Register(api, huma.Operation{
		OperationID: "apply-filters",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/view",
		Summary:     "Apply filters",
		Description: "Returns the records that satisfy every constraint, in dataset order.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.View)

	huma.Register(api, huma.Operation{
		OperationID: "aggregate",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/aggregate",
		Summary:     "Aggregate a filtered view",
		Description: "Groups the filtered records by a categorical column and reduces a numeric column per group.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Aggregate)

	huma.Register(api, huma.Operation{
		OperationID: "trend",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/trend",
		Summary:     "Aggregate a filtered view by period",
		Description: "Like aggregate, ordered by period with numeric periods first.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Trend)

	huma.Register(api, huma.Operation{
		OperationID: "derive-insight",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/insight",
		Summary:     "Derive pricing insight",
		Description: "Compares the filtered mean price with the median price of the whole dataset.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Insight)

	huma.Register(api, huma.Operation{
		OperationID: "summarize",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/summary",
		Summary:     "Summarize a filtered view",
		Description: "Returns product count, total revenue and average price, rating and success.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Summary)

	huma.Register(api, huma.Operation{
		OperationID: "rank-top",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/top",
		Summary:     "Rank a filtered view",
		Description: "Sorts the filtered records by one or more keys and returns the first N.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Top)

	huma.Register(api, huma.Operation{
		OperationID: "optimization-picks",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/picks",
		Summary:     "Price optimization picks",
		Description: "Products above the success threshold priced below the filtered mean.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Picks)

	huma.Register(api, huma.Operation{
		OperationID: "low-performers",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/low-performers",
		Summary:     "Products to optimize",
		Description: "Products below the success threshold, most expensive first.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.LowPerformers)

	huma.Register(api, huma.Operation{
		OperationID: "high-potential",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/high-potential",
		Summary:     "High potential products",
		Description: "Well-rated products whose success is below the filtered median.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.HighPotential)

	huma.Register(api, huma.Operation{
		OperationID: "overpriced",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/overpriced",
		Summary:     "Overpriced products",
		Description: "Products priced above a quantile of the filtered prices with success below a threshold.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Overpriced)

	huma.Register(api, huma.Operation{
		OperationID: "high-success",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/high-success",
		Summary:     "High success products",
		Description: "Products whose success is above a threshold, in dataset order.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.HighSuccess)

	huma.Register(api, huma.Operation{
		OperationID: "hierarchy",
		Method:      http.MethodPost,
		Path:        "/api/v1/datasets/{id}/hierarchy",
		Summary:     "Nested grouping",
		Description: "Groups the filtered records level by level for sunburst-style charts.",
		Tags:        []string{"analytics"},
		Errors:      errs,
	}, h.Hierarchy)
}
