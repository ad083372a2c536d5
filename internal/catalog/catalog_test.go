package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/smartsell/internal/config"
	"github.com/donaldgifford/smartsell/internal/metrics"
	domain "github.com/donaldgifford/smartsell/pkg/types"
)

var schema = domain.Schema{
	Category: "Category",
	Name:     "Product_Name",
	Price:    "Price",
	Rating:   "Rating",
	Sales:    "Sales",
}

const validCSV = "Product_Name,Category,Price,Rating,Sales\nA,Home,10,4,5\nB,Tech,20,3,7\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRegistry_LoadAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := New([]Source{
		{ID: "catalog-a", Path: writeFile(t, dir, "a.csv", validCSV), Schema: schema, DeriveRevenue: true},
		{ID: "catalog-b", Path: writeFile(t, dir, "b.csv", validCSV+"C,Home,bad,4,1\n"), Schema: schema},
	})

	assert.False(t, r.Ready())
	require.NoError(t, r.LoadAll(context.Background()))
	assert.True(t, r.Ready())

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "catalog-a", list[0].ID)
	assert.Equal(t, "catalog-b", list[1].ID)

	b, err := r.Get("catalog-b")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 1, b.Skipped())

	_, hasRevenue := b.Column(domain.DefaultRevenueColumn)
	assert.False(t, hasRevenue, "derive_revenue disabled")

	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.DatasetRows.WithLabelValues("catalog-a")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.DatasetSkippedRowsTotal.WithLabelValues("catalog-b")), 0)
}

func TestRegistry_LoadAll_FailsAsAWhole(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := New([]Source{
		{ID: "fail-good", Path: writeFile(t, dir, "a.csv", validCSV), Schema: schema},
		{ID: "fail-bad", Path: writeFile(t, dir, "b.csv", "Product_Name,Price\nA,1\n"), Schema: schema},
	})

	err := r.LoadAll(context.Background())
	require.Error(t, err)

	var se *domain.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "fail-bad")

	assert.Empty(t, r.List(), "nothing is published on failure")
	assert.False(t, r.Ready())
}

func TestRegistry_LoadAll_MissingFile(t *testing.T) {
	t.Parallel()

	r := New([]Source{{ID: "missing", Path: filepath.Join(t.TempDir(), "nope.csv"), Schema: schema}})
	err := r.LoadAll(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistry_Get_NotFound(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Get("nope")
	require.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func TestRegistry_Refresh(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv", validCSV)
	r := New([]Source{{ID: "refresh", Path: path, Schema: schema, DeriveRevenue: true}})
	require.NoError(t, r.LoadAll(context.Background()))

	first, err := r.Get("refresh")
	require.NoError(t, err)

	ids, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "unchanged file is not reloaded")

	require.NoError(t, os.WriteFile(path, []byte(validCSV+"C,Sports,30,5,2\n"), 0o600))
	later := first.ModTime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	ids, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"refresh"}, ids)

	second, err := r.Get("refresh")
	require.NoError(t, err)
	assert.Equal(t, 3, second.Len())
	assert.NotEqual(t, first.LoadID, second.LoadID)
	assert.Equal(t, 2, first.Len(), "old snapshot is untouched")
}

func TestRegistry_Refresh_KeepsSnapshotOnError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv", validCSV)
	r := New([]Source{{ID: "keep", Path: path, Schema: schema}})
	require.NoError(t, r.LoadAll(context.Background()))

	before, err := r.Get("keep")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("Product_Name\nbroken\n"), 0o600))
	later := before.ModTime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	ids, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.Empty(t, ids)

	after, err := r.Get("keep")
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestSourcesFromConfig(t *testing.T) {
	t.Parallel()

	no := false
	sources, err := SourcesFromConfig([]config.DatasetConfig{
		{ID: "a", Path: "a.csv", Delimiter: "tab", Columns: schema},
		{ID: "b", Path: "b.csv", Columns: schema, DeriveRevenue: &no},
	})
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, '\t', sources[0].Delimiter)
	assert.True(t, sources[0].DeriveRevenue)
	assert.Equal(t, rune(0), sources[1].Delimiter)
	assert.False(t, sources[1].DeriveRevenue)

	_, err = SourcesFromConfig([]config.DatasetConfig{{ID: "c", Delimiter: "ab"}})
	require.Error(t, err)
}
