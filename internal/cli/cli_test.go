package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapkiduki/boxpack/internal/application/dto"
	"github.com/hapkiduki/boxpack/internal/application/service"
)

const shelfTOML = `
name = "shelf"

[[items]]
width = 3.0
height = 2.0
length = 1.0

[[items]]
width = 3.0
height = 2.0
length = 1.0

[[items]]
width = 3.0
height = 2.0
length = 1.0
`

const shelfJSON = `{
  "items": [
    {"width": 3, "height": 2, "length": 1},
    {"width": 3, "height": 2, "length": 1},
    {"width": 3, "height": 2, "length": 1}
  ]
}`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := New(&out, &errOut, "1.2.3").RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decodeLayout(t *testing.T, out string) dto.LayoutResponse {
	t.Helper()
	var resp dto.LayoutResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestPackJSON(t *testing.T) {
	path := writeFile(t, "shelf.toml", shelfTOML)

	out, _, err := run(t, "pack", path, "--format", "json")
	require.NoError(t, err)

	resp := decodeLayout(t, out)
	assert.Equal(t, "shelf", resp.Name)
	assert.Equal(t, 3, resp.ItemCount)
	assert.InDelta(t, 180.0, resp.Volume, 1e-9)
	assert.InDelta(t, 0.1, resp.Utilization, 1e-9)
	assert.Len(t, resp.Placements, 4)
	assert.Empty(t, resp.Placements[0].Path)
}

func TestPackTOMLMatchesJSON(t *testing.T) {
	fromTOML, _, err := run(t, "pack", writeFile(t, "a.toml", shelfTOML), "-f", "json")
	require.NoError(t, err)
	fromJSON, _, err := run(t, "pack", writeFile(t, "b.json", shelfJSON), "-f", "json", "--name", "shelf")
	require.NoError(t, err)

	a, b := decodeLayout(t, fromTOML), decodeLayout(t, fromJSON)
	assert.Equal(t, a.Container, b.Container)
	assert.Equal(t, a.Placements, b.Placements)
}

func TestPackNormalize(t *testing.T) {
	out, _, err := run(t, "pack", writeFile(t, "shelf.toml", shelfTOML), "--normalize", "2", "-f", "json")
	require.NoError(t, err)

	resp := decodeLayout(t, out)
	assert.InDelta(t, 2.0, resp.Unit, 1e-12)
	c := resp.Container
	assert.InDelta(t, 2.0, max(c.Width, c.Height, c.Length), 1e-9)
}

func TestPackInvalidNormalize(t *testing.T) {
	_, _, err := run(t, "pack", writeFile(t, "shelf.toml", shelfTOML), "--normalize", "0")
	assert.ErrorIs(t, err, service.ErrInvalidUnit)
}

func TestPackName(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"from file name", nil, "items"},
		{"from flag", []string{"--name", "rack"}, "rack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"pack", writeFile(t, "items.json", shelfJSON), "-f", "json"}, tt.args...)
			out, _, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decodeLayout(t, out).Name)
		})
	}
}

func TestPackText(t *testing.T) {
	out, _, err := run(t, "pack", writeFile(t, "shelf.toml", shelfTOML), "--normalize", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "Layout shelf")
	assert.Contains(t, out, "utilization")
	assert.Contains(t, out, "10.0%")
	assert.Contains(t, out, "unit")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "Path")
}

func TestPackInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		args    []string
		check   func(t *testing.T, err error)
	}{
		{
			name: "unsupported extension", file: "shelf.yaml", content: "items: []",
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnsupportedFormat) },
		},
		{
			name: "unknown format flag", file: "shelf.toml", content: shelfTOML, args: []string{"-f", "xml"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnknownFormat) },
		},
		{
			name: "unknown toml key", file: "shelf.toml", content: "colour = \"red\"\n" + shelfTOML,
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "colour") },
		},
		{
			name: "unknown json key", file: "shelf.json", content: `{"items": [{"width": 1, "height": 1, "length": 1, "depth": 2}]}`,
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "depth") },
		},
		{
			name: "negative width", file: "shelf.json", content: `{"items": [{"width": -1, "height": 1, "length": 1}]}`,
			check: func(t *testing.T, err error) {
				assert.True(t, service.IsInvalidRequest(err))
				assert.ErrorContains(t, err, "items[0].width")
			},
		},
		{
			name: "no items", file: "empty.json", content: `{"name": "empty"}`,
			check: func(t *testing.T, err error) { assert.True(t, service.IsInvalidRequest(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"pack", writeFile(t, tt.file, tt.content)}, tt.args...)
			_, _, err := run(t, args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestPackMissingFile(t *testing.T) {
	_, _, err := run(t, "pack", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPackConfigLimits(t *testing.T) {
	cfg := writeFile(t, "boxpack.yaml", "packing:\n  max_children: 2\n")

	_, _, err := run(t, "--config", cfg, "pack", writeFile(t, "shelf.toml", shelfTOML))
	assert.ErrorIs(t, err, service.ErrLimitExceeded)
}

func TestFit(t *testing.T) {
	const doc = `{
  "box": {"width": 3, "height": 1, "length": 1},
  "container": {"width": 1, "height": 1, "length": 3}
}`
	path := writeFile(t, "fit.json", doc)

	out, _, err := run(t, "fit", path, "-f", "json")
	require.NoError(t, err)
	var resp dto.FitResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Fits)
	assert.Nil(t, resp.FitsRotated)

	out, _, err = run(t, "fit", path, "--rotate", "-f", "json")
	require.NoError(t, err)
	resp = dto.FitResponse{}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Fits)
	require.NotNil(t, resp.FitsRotated)
	assert.True(t, *resp.FitsRotated)

	out, _, err = run(t, "fit", path, "-r")
	require.NoError(t, err)
	assert.Contains(t, out, "does not fit")
	assert.Contains(t, out, "fits when rotated")
}

func TestFitTOML(t *testing.T) {
	const doc = `
[box]
width = 1.0
height = 1.0
length = 1.0
margin = 0.5

[container]
width = 2.0
height = 2.0
length = 2.0
`
	out, _, err := run(t, "fit", writeFile(t, "fit.toml", doc))
	require.NoError(t, err)
	assert.Contains(t, out, "fits")
	assert.NotContains(t, out, "does not fit")
	assert.Contains(t, out, "box 2 x 2 x 2")
}

func TestVerboseLogsToErrOut(t *testing.T) {
	_, errOut, err := run(t, "-v", "pack", writeFile(t, "shelf.toml", shelfTOML))
	require.NoError(t, err)
	assert.Contains(t, errOut, "Layout packed")

	_, errOut, err = run(t, "pack", writeFile(t, "shelf.toml", shelfTOML))
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "boxpack 1.2.3\n", out)
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	err := &dto.FieldError{Path: "items[0].width", Err: errors.New("must not be negative")}
	printError(&buf, err)

	assert.Contains(t, buf.String(), "items[0].width: must not be negative")
}

func TestFormatPath(t *testing.T) {
	assert.Equal(t, "root", formatPath(nil))
	assert.Equal(t, "0.2.1", formatPath([]int{0, 2, 1}))
}
