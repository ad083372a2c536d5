// Package domain defines the core types shared by the loader, the filter
// engine, and the API layer.
package domain

import (
	"slices"
	"time"
)

// Role names a logical column the filter engine understands.
type Role string

// Role constants.
const (
	RoleCategory    Role = "category"
	RoleSubCategory Role = "sub_category"
	RoleName        Role = "name"
	RolePrice       Role = "price"
	RoleRating      Role = "rating"
	RoleSales       Role = "sales"
	RoleRevenue     Role = "revenue"
	RoleSuccess     Role = "success"
	RoleYear        Role = "year"
)

// DefaultRevenueColumn is the header used for derived revenue when the
// schema does not name one.
const DefaultRevenueColumn = "Revenue"

// Schema maps logical roles to the header names of one source table.
// Category, Name, Price and Rating are required; the rest are optional.
type Schema struct {
	Category    string `json:"category"               yaml:"category"`
	SubCategory string `json:"sub_category,omitempty" yaml:"sub_category"`
	Name        string `json:"name"                   yaml:"name"`
	Price       string `json:"price"                  yaml:"price"`
	Rating      string `json:"rating"                 yaml:"rating"`
	Sales       string `json:"sales,omitempty"        yaml:"sales"`
	Revenue     string `json:"revenue,omitempty"      yaml:"revenue"`
	Success     string `json:"success,omitempty"      yaml:"success"`
	Year        string `json:"year,omitempty"         yaml:"year"`
}

// Column returns the header mapped to role, or "" when unmapped.
func (s Schema) Column(r Role) string {
	switch r {
	case RoleCategory:
		return s.Category
	case RoleSubCategory:
		return s.SubCategory
	case RoleName:
		return s.Name
	case RolePrice:
		return s.Price
	case RoleRating:
		return s.Rating
	case RoleSales:
		return s.Sales
	case RoleRevenue:
		return s.RevenueColumn()
	case RoleSuccess:
		return s.Success
	case RoleYear:
		return s.Year
	default:
		return ""
	}
}

// RevenueColumn returns the revenue header, falling back to
// DefaultRevenueColumn.
func (s Schema) RevenueColumn() string {
	if s.Revenue != "" {
		return s.Revenue
	}
	return DefaultRevenueColumn
}

// RequiredRoles lists the roles every dataset must map.
func RequiredRoles() []Role {
	return []Role{RoleCategory, RolePrice, RoleRating, RoleName}
}

// NumericRoles lists the roles whose columns hold numbers.
func NumericRoles() []Role {
	return []Role{RolePrice, RoleRating, RoleSales, RoleRevenue, RoleSuccess, RoleYear}
}

// IsNumericRole reports whether r names a numeric column.
func IsNumericRole(r Role) bool {
	return slices.Contains(NumericRoles(), r)
}

// ColumnKind is the value type of a dataset column.
type ColumnKind string

// Column kind constants.
const (
	KindText   ColumnKind = "text"
	KindNumber ColumnKind = "number"
)

// Column describes one column of a loaded dataset.
type Column struct {
	Name    string     `json:"name"`
	Kind    ColumnKind `json:"kind"`
	Role    Role       `json:"role,omitempty"`
	Derived bool       `json:"derived,omitempty"`
}

// Record is one product row. Text and numeric cells are kept apart so
// numeric columns are parsed exactly once, at load time.
type Record struct {
	// Index is the zero-based position of the row in its dataset.
	Index   int                `json:"index"`
	Text    map[string]string  `json:"text,omitempty"`
	Numbers map[string]float64 `json:"numbers,omitempty"`
}

// Str returns the text value of col, or "" when absent.
func (r *Record) Str(col string) string {
	return r.Text[col]
}

// Num returns the numeric value of col.
func (r *Record) Num(col string) (float64, bool) {
	v, ok := r.Numbers[col]
	return v, ok
}

// Dataset is an immutable, ordered snapshot of a source table.
type Dataset struct {
	ID       string               `json:"id"`
	LoadID   string               `json:"load_id"`
	Source   string               `json:"source"`
	Schema   Schema               `json:"schema"`
	Columns  []Column             `json:"columns"`
	Records  []Record             `json:"-"`
	Warnings []DataQualityWarning `json:"-"`
	ModTime  time.Time            `json:"mod_time"`
	LoadedAt time.Time            `json:"loaded_at"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Skipped returns the number of rows excluded at load time.
func (d *Dataset) Skipped() int {
	n := 0
	for i := range d.Warnings {
		if !d.Warnings[i].Kept {
			n++
		}
	}
	return n
}

// Column looks up a column by header name.
func (d *Dataset) Column(name string) (Column, bool) {
	return lookupColumn(d.Columns, name)
}

// WithRecords returns a shallow copy of d holding records instead of the
// original rows. The copy shares columns and schema with d.
func (d *Dataset) WithRecords(records []Record) *Dataset {
	cp := *d
	cp.Records = records
	cp.Warnings = nil
	return &cp
}

// FilterSpec holds the user's current constraints. Every field is
// optional; an absent field imposes no constraint.
type FilterSpec struct {
	// Categories restricts rows to these category values. Empty means
	// no restriction, not "exclude everything".
	Categories []string `json:"categories,omitempty"  doc:"Allowed category values; empty means all"`
	PriceMin   *float64 `json:"price_min,omitempty"   doc:"Inclusive lower price bound"`
	PriceMax   *float64 `json:"price_max,omitempty"   doc:"Inclusive upper price bound"`
	RatingMin  *float64 `json:"rating_min,omitempty"  doc:"Inclusive minimum rating (default 1.0)"`
	SearchTerm string   `json:"search_term,omitempty" doc:"Case-insensitive substring of the product name"`
}

// View is the subset of a dataset that satisfies a FilterSpec. Records
// keep their original dataset order.
type View struct {
	DatasetID string     `json:"dataset_id"`
	LoadID    string     `json:"load_id"`
	Spec      FilterSpec `json:"spec"`
	Schema    Schema     `json:"-"`
	Columns   []Column   `json:"-"`
	Records   []Record   `json:"records"`
}

// Len returns the number of matching records.
func (v *View) Len() int {
	return len(v.Records)
}

// Column looks up a column by header name.
func (v *View) Column(name string) (Column, bool) {
	return lookupColumn(v.Columns, name)
}

func lookupColumn(cols []Column, name string) (Column, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Reducer is the reduction applied to each group of an aggregate.
type Reducer string

// Reducer constants.
const (
	ReduceMean  Reducer = "mean"
	ReduceSum   Reducer = "sum"
	ReduceCount Reducer = "count"
	ReduceMin   Reducer = "min"
	ReduceMax   Reducer = "max"
)

// Order controls the ordering of aggregate points.
type Order string

// Order constants. OrderNone keeps first-appearance order.
const (
	OrderNone        Order = ""
	OrderByKey       Order = "key"
	OrderByValueAsc  Order = "value_asc"
	OrderByValueDesc Order = "value_desc"
)

// SeriesPoint is one group of an aggregate. Value is nil when a mean, min
// or max has no numeric cells to reduce, even though Count is positive.
type SeriesPoint struct {
	Key   string   `json:"key"`
	Value *float64 `json:"value"`
	Count int      `json:"count"`
}

// AggregateSeries is a grouped-and-reduced series used to drive a chart.
type AggregateSeries struct {
	GroupBy string        `json:"group_by"`
	Value   string        `json:"value,omitempty"`
	Reducer Reducer       `json:"reducer"`
	Order   Order         `json:"order,omitempty"`
	Points  []SeriesPoint `json:"points"`
}

// Total returns the sum of per-group counts.
func (s *AggregateSeries) Total() int {
	n := 0
	for _, p := range s.Points {
		n += p.Count
	}
	return n
}

// InsightSignal classifies the selection's pricing against the market.
type InsightSignal string

// Insight signal constants.
const (
	SignalAboveMedian     InsightSignal = "ABOVE_MEDIAN"
	SignalAtOrBelowMedian InsightSignal = "AT_OR_BELOW_MEDIAN"
	SignalNoData          InsightSignal = "NO_DATA"
)

// Insight is the outcome of comparing the view's mean price with the
// dataset-wide median price.
type Insight struct {
	Signal      InsightSignal `json:"signal"`
	MeanPrice   *float64      `json:"mean_price,omitempty"`
	MedianPrice float64       `json:"median_price"`
	ViewSize    int           `json:"view_size"`
}

// SortKey is one key of a multi-key ranking.
type SortKey struct {
	Column     string `json:"column"               doc:"Column header to sort by"`
	Descending bool   `json:"descending,omitempty" doc:"Sort descending instead of ascending"`
}

// Summary is the KPI block of a view. Nil averages mean "no data".
type Summary struct {
	Count        int      `json:"count"`
	TotalRevenue *float64 `json:"total_revenue,omitempty"`
	AvgPrice     *float64 `json:"avg_price,omitempty"`
	AvgRating    *float64 `json:"avg_rating,omitempty"`
	AvgSuccess   *float64 `json:"avg_success,omitempty"`
}

// HierarchyNode is one node of a nested grouping (sunburst input).
type HierarchyNode struct {
	Key      string          `json:"key"`
	Value    float64         `json:"value"`
	Count    int             `json:"count"`
	Children []HierarchyNode `json:"children,omitempty"`
}

// FilterOptions is the domain of the filter widgets for a dataset.
type FilterOptions struct {
	Categories []string `json:"categories"`
	PriceMin   float64  `json:"price_min"`
	PriceMax   float64  `json:"price_max"`
	RatingMin  float64  `json:"rating_min"`
	RatingMax  float64  `json:"rating_max"`
}
