package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
opportunities:
  - title: Bridge Inspection Services
    agency_name: State DOT
    source_type: state_rfp
    estimated_value: 250000
    due_date: 2026-02-20
  - title: Rural Broadband Grant
    agency_name: Department of Agriculture
    source_type: federal_grant
    due_date: 2026-06-01
  - title: Expired Janitorial Contract
    agency_name: City Hall
    source_type: private_rfp
    estimated_value: 5000
    due_date: 2026-01-01
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	// go-pretty upper-cases headers and footers.
	return strings.ToLower(out.String()), err
}

func TestRank_RendersTable(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--now", "2026-02-12", "--sort", "title", "--explain")
	require.NoError(t, err)

	bridge := strings.Index(out, "bridge inspection")
	broadband := strings.Index(out, "rural broadband")
	require.GreaterOrEqual(t, bridge, 0)
	require.GreaterOrEqual(t, broadband, 0)
	assert.Less(t, bridge, broadband, "title sort is ascending by default")
	assert.Contains(t, out, "3 total")
	assert.Contains(t, out, "past due")
}

func TestRank_Filters(t *testing.T) {
	out, err := run(t, "--file", writeFixture(t), "--now", "2026-02-12", "--status", "active", "--min-value", "0", "--max-value", "100000")
	require.NoError(t, err)
	assert.Contains(t, out, "rural broadband")
	assert.NotContains(t, out, "bridge inspection")
	assert.NotContains(t, out, "janitorial")
	assert.Contains(t, out, "1 total")
}

func TestRank_InvalidQuery(t *testing.T) {
	_, err := run(t, "--file", writeFixture(t), "--page-size", "0", "--sort", "random")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pageSize")
	assert.Contains(t, err.Error(), "sortBy")
}

func TestRank_RequiresSource(t *testing.T) {
	_, err := run(t)
	require.Error(t, err)
}

func TestRank_SampleFixture(t *testing.T) {
	out, err := run(t, "--file", "../../../testdata/opportunities.yaml", "--now", "2026-02-12",
		"--interests", "broadband,cloud", "--source-type", "all", "--page-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "page 1 of 3")
	assert.Contains(t, out, "5 total")
}
