package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csv2json/internal/config"
	"github.com/JonMunkholm/csv2json/internal/core"
)

func testApp(t *testing.T, in, out string) (*bytes.Buffer, func(args ...string) error) {
	t.Helper()
	cfg := &config.Config{Convert: config.ConvertConfig{InputPath: in, OutputPath: out, ExtraFields: "drop"}}
	app := newApp(cfg)
	var stdout bytes.Buffer
	app.Writer = &stdout
	return &stdout, func(args ...string) error {
		return app.Run(append([]string{"csv2json"}, args...))
	}
}

func TestDefaultActionUsesConfiguredPaths(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "crash.csv")
	out := filepath.Join(dir, "crash.json")
	require.NoError(t, os.WriteFile(in, []byte("County,Year\nTravis,2020\n"), 0o644))

	stdout, run := testApp(t, in, out)
	require.NoError(t, run())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"County\": \"Travis\",\n        \"Year\": \"2020\"\n    }\n]", string(data))
	assert.Equal(t, "Converted '"+in+"' to '"+out+"' successfully.\n", stdout.String())
}

func TestConvertCommandArguments(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.csv")
	out := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(in, []byte("A,B\n1\n"), 0o644))

	_, run := testApp(t, "unused.csv", "unused.json")
	require.NoError(t, run("convert", in, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"A":"1","B":null}]`, string(data))
}

func TestConvertCommandStrict(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.csv")
	out := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(in, []byte("A\n1,2\n"), 0o644))

	_, run := testApp(t, in, out)
	err := run("convert", "--extra-fields", "strict")

	var malformed *core.MalformedRowError
	require.ErrorAs(t, err, &malformed)
	assert.NoFileExists(t, out)
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")

	_, run := testApp(t, filepath.Join(dir, "missing.csv"), out)

	err := run()
	var ioErr *core.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.NoFileExists(t, out)

	assert.Error(t, run("convert", "a", "b", "c"))
	assert.Error(t, run("convert", "--extra-fields", "keep"))
}

func TestReportError(t *testing.T) {
	dir := t.TempDir()
	_, run := testApp(t, filepath.Join(dir, "invalid csv.csv"), filepath.Join(dir, "out.json"))

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes string
	}{
		{
			name:     "too many arguments",
			args:     []string{"convert", "a", "b", "c"},
			contains: []string{"csv2json: convert takes at most 2 arguments, got 3"},
			excludes: "ERR000",
		},
		{
			name:     "bad extra-fields value",
			args:     []string{"convert", "--extra-fields", "keep"},
			contains: []string{`--extra-fields must be drop or strict, got "keep"`},
			excludes: "ERR000",
		},
		{
			name: "missing input keeps the cause and the code",
			args: nil,
			contains: []string{
				"csv2json: io error: open",
				"invalid csv.csv",
				"(Code: FILE004)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.args...)
			require.Error(t, err)

			var stderr bytes.Buffer
			reportError(&stderr, err)
			for _, want := range tt.contains {
				assert.Contains(t, stderr.String(), want)
			}
			if tt.excludes != "" {
				assert.NotContains(t, stderr.String(), tt.excludes)
			}
		})
	}
}
