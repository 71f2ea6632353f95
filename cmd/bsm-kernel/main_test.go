package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, e := range []string{"BSMK_MARKET_API_KEY", "MASSIVE_API_KEY", "POLYGON_API_KEY", "BSMK_OUTPUT_FORMAT"} {
		t.Setenv(e, "")
		os.Unsetenv(e)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bsm-kernel dev")
}

func TestPrice_JSON(t *testing.T) {
	out, err := run(t, "price",
		"--spot", "42", "--strike", "40",
		"--valuation", "2024-01-02", "--expiry", "2024-07-02",
		"--vol", "0.2", "--rate", "0.1", "--format", "json")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "contract", rows[0]["id"])
	assert.InDelta(t, 4.75, rows[0]["call_price"], 0.05)
	assert.InDelta(t, 0.80, rows[0]["put_price"], 0.05)
	assert.Equal(t, "2024-07-02", rows[0]["expiry_date"])
}

func TestPrice_PerLegVolAndListedExpiry(t *testing.T) {
	out, err := run(t, "price",
		"--spot", "100", "--strike", "100", "--id", "skew",
		"--valuation", "2024-01-02", "--expiry", "2024-02-10",
		"--listed", "2024-02-02,2024-02-16", "--match", "higher",
		"--vol-put", "0.3", "--vol-call", "0.2", "--format", "csv", "--precision", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "skew,,100.00,100.00,2024-01-02,2024-02-16,")
	assert.Contains(t, out, ",0.30,0.20,false,")
}

func TestPrice_Errors(t *testing.T) {
	_, err := run(t, "price", "--strike", "40", "--expiry", "2024-07-02", "--vol", "0.2")
	assert.ErrorContains(t, err, "--spot is required")

	_, err = run(t, "price", "--spot", "42", "--strike", "40", "--valuation", "2024-07-03", "--expiry", "2024-07-02", "--vol", "0.2")
	assert.ErrorContains(t, err, "expiry_date")

	_, err = run(t, "price", "--spot", "42", "--strike", "40", "--expiry", "2024-07-02", "--vol", "0.2", "--format", "xml")
	assert.ErrorContains(t, err, "output.format")
}

const batchCSV = `id,ticker,spot,strike,valuation_date,expiry_date,rate,vol_put,vol_call,dividend_yield
a,AAA,100,100,2024-01-02,2024-07-01,0.05,0.2,0.2,0
b,BBB,50,55,2024-01-02,2024-03-01,,0.35,0.3,0.01
bad,CCC,50,55,2024-01-02,2024-03-01,,0,0.3,0.01
`

func TestBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(path, []byte(batchCSV), 0o644))
	outDir := filepath.Join(t.TempDir(), "out")

	// blank market cells on a ticker row need a market key
	_, err := run(t, "batch", path)
	assert.ErrorContains(t, err, "vol_put")
	assert.ErrorContains(t, err, "no market supplier")

	out, err := run(t, "batch", path, "--skip-invalid", "--format", "json", "--out", outDir, "-v", "0")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0]["id"])
	assert.Equal(t, "BBB", rows[1]["ticker"])
	assert.Equal(t, 0.05, rows[1]["rate"])

	_, err = os.Stat(filepath.Join(outDir, "results.csv"))
	assert.NoError(t, err)
}
