package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Setenv("PORTFOLIODB_DATA_DIR", t.TempDir())
	t.Setenv("FX_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("QUOTE_SYNC_SCHEDULE", "")
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func TestCommands_Names(t *testing.T) {
	var names []string
	for _, c := range commands(&bytes.Buffer{}) {
		names = append(names, c.Name())
		assert.NotEmpty(t, c.Synopsis())
		assert.NotEmpty(t, c.Usage())
	}
	assert.Equal(t, []string{"fetch-quotes", "developments", "providers"}, names)
}

func TestProvidersCmd(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	status := run(t, &providersCmd{out: &out})
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Equal(t, "justetf\nyahoo\n", out.String())
}

func TestDevelopmentsCmd_EmptyLedger(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	status := run(t, &developmentsCmd{out: &out}, "-start", "2024-01-01", "-end", "2024-12-31")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.JSONEq(t, "[]", out.String())
}

func TestDevelopmentsCmd_InvalidDate(t *testing.T) {
	var out bytes.Buffer

	status := run(t, &developmentsCmd{out: &out}, "-start", "01/02/2024")
	assert.Equal(t, subcommands.ExitUsageError, status)
	assert.Empty(t, out.String())
}

func TestFetchQuotesCmd_NothingConfigured(t *testing.T) {
	setupEnv(t)
	var out bytes.Buffer

	status := run(t, &fetchQuotesCmd{out: &out})
	require.Equal(t, subcommands.ExitSuccess, status)

	var resp struct {
		RunID string `json:"run_id"`
		Total int    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 0, resp.Total)
}

func TestFetchQuotesCmd_InvalidIDs(t *testing.T) {
	var out bytes.Buffer

	status := run(t, &fetchQuotesCmd{out: &out}, "-ids", "1,abc")
	assert.Equal(t, subcommands.ExitUsageError, status)
}

func TestParseOptionalDay(t *testing.T) {
	d, err := parseOptionalDay("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseOptionalDay("2024-03-15")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-03-15", d.Format("2006-01-02"))
}
