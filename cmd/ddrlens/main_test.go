package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/ddrlens/internal/errs"
)

const fixture = "../../internal/catalog/testdata/orders.xml"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-log-level", "error"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Describe(t *testing.T) {
	code, out, _ := runCLI(t, "describe")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "script_fields")
	assert.Equal(t, 17, strings.Count(out, "\n"))
}

func TestRun_Tables(t *testing.T) {
	code, out, _ := runCLI(t, "-source", fixture, "tables")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "layout_fields")

	code, out, _ = runCLI(t, "-source", fixture, "-limit", "1", "tables", "scripts")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Open Invoice")
	assert.Contains(t, out, "... 1 more rows")

	code, _, errOut := runCLI(t, "-source", fixture, "tables", "nope")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown table")
}

func TestRun_Report(t *testing.T) {
	code, out, _ := runCLI(t, "-source", fixture, "report", "Invoices")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "4. Layout Fields grouped (1)")

	code, _, _ = runCLI(t, "-source", fixture, "report")
	assert.Equal(t, 2, code)
}

func TestRun_ExportCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")

	code, _, errOut := runCLI(t, "-source", fixture, "-out", dir, "export")
	require.Equal(t, 0, code, errOut)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 16)
}

func TestRun_ExportSQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ddr.db")

	code, _, errOut := runCLI(t, "-source", fixture, "-format", "sqlite", "-dsn", db, "export")
	require.Equal(t, 0, code, errOut)

	info, err := os.Stat(db)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_Errors(t *testing.T) {
	code, _, _ := runCLI(t)
	assert.Equal(t, 2, code)

	code, _, errOut := runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "frobnicate"`)

	code, _, _ = runCLI(t, "-source", "missing.xml", "tables")
	assert.Equal(t, 1, code)

	code, _, _ = runCLI(t, "tables")
	assert.Equal(t, 2, code, "no source given")

	code, _, errOut = runCLI(t, "-format", "parquet", "describe")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid export format")

	code, _, _ = runCLI(t, "sources")
	assert.Equal(t, 2, code, "no minio configured")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid input", err: errs.New(errs.ErrKindInvalidInput, "bad flag"), want: 2},
		{name: "structural", err: errs.New(errs.ErrKindStructural, "no BaseTableCatalog"), want: 1},
		{name: "query failed", err: errs.New(errs.ErrKindQueryFailed, "copy failed"), want: 1},
		{name: "plain error", err: os.ErrClosed, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ddrlens version dev")
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("DDRLENS_EXPORT_DIR", "from-env")
	t.Setenv("DDRLENS_SERVER_ADDR", ":9000")

	cfg, err := loadConfig(options{out: "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Export.Dir)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}
