package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkConfig = `
datasets:
  - id: products
    path: %s
    columns:
      category: Category
      name: Product_Name
      price: Price
      rating: Rating
`

func writeCheckFixture(t *testing.T, csv string) string {
	t.Helper()

	dir := t.TempDir()
	data := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(data, []byte(csv), 0o600))

	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, fmt.Appendf(nil, checkConfig, data), 0o600))
	return cfg
}

func runCheckWith(t *testing.T, cfg string, limit int) (string, error) {
	t.Helper()

	cfgFile, maxWarnings = cfg, limit
	t.Cleanup(func() { cfgFile, maxWarnings = "config.yaml", 20 })

	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	c.SetContext(context.Background())

	err := runCheck(c, nil)
	return buf.String(), err
}

func TestRunCheck_ReportsSkippedRows(t *testing.T) {
	cfg := writeCheckFixture(t, "Product_Name,Category,Price,Rating\n"+
		"Widget,Tech,10,4\n"+
		"Pan,Home,bad,3\n"+
		"Lamp,Home,20,2\n")

	out, err := runCheckWith(t, cfg, 20)
	require.NoError(t, err)
	assert.Contains(t, out, "products: 2 rows loaded, 1 skipped")
	assert.Contains(t, out, `"bad"`)
}

func TestRunCheck_LimitsWarnings(t *testing.T) {
	cfg := writeCheckFixture(t, "Product_Name,Category,Price,Rating\n"+
		"A,Tech,x,4\n"+
		"B,Tech,y,4\n"+
		"C,Tech,z,4\n"+
		"D,Tech,10,4\n")

	out, err := runCheckWith(t, cfg, 1)
	require.NoError(t, err)
	assert.Contains(t, out, "products: 1 rows loaded, 3 skipped")
	assert.Contains(t, out, "... and 2 more")
}

func TestRunCheck_SchemaError(t *testing.T) {
	cfg := writeCheckFixture(t, "Product_Name,Price\nWidget,10\n")

	_, err := runCheckWith(t, cfg, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestRunCheck_MissingConfig(t *testing.T) {
	_, err := runCheckWith(t, filepath.Join(t.TempDir(), "nope.yaml"), 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
