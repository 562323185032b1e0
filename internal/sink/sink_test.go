package sink

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/reg/internal/logging"
	"github.com/thoreinstein/reg/internal/scan"
)

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name  string
		match scan.Match
		want  string
	}{
		{
			name:  "key match is the bare path",
			match: scan.Match{Kind: scan.KindKeyName, KeyPath: `HKEY_USERS\S-1-5-18`},
			want:  `HKEY_USERS\S-1-5-18`,
		},
		{
			name: "value match",
			match: scan.Match{
				Kind:      scan.KindValueData,
				KeyPath:   `HKEY_CURRENT_USER\Software\Vendor`,
				ValueName: "Setting",
				Data:      "bitlocker status",
			},
			want: `HKEY_CURRENT_USER\Software\Vendor : Setting = bitlocker status`,
		},
		{
			name: "default value name",
			match: scan.Match{
				Kind:    scan.KindValueData,
				KeyPath: `HKEY_CLASSES_ROOT\.dll`,
				Data:    "dllfile",
			},
			want: `HKEY_CLASSES_ROOT\.dll : (Default) = dllfile`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMatch(tt.match))
		})
	}
}

func TestSink_WritesTextLines(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(Options{Out: &buf, Logger: logging.ForTest(t)})
	require.NoError(t, err)
	defer s.Close()

	s.Write(scan.Match{Kind: scan.KindKeyName, KeyPath: `HKEY_CURRENT_USER\A`})
	s.Write(scan.Match{Kind: scan.KindValueName, KeyPath: `HKEY_CURRENT_USER\A`, ValueName: "n", Data: "d"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `HKEY_CURRENT_USER\A`, lines[0])
	assert.Equal(t, `HKEY_CURRENT_USER\A : n = d`, lines[1])
	assert.Equal(t, 2, s.Count())
}

func TestSink_JSONLines(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(Options{Out: &buf, JSON: true, Logger: logging.ForTest(t)})
	require.NoError(t, err)
	defer s.Close()

	s.Write(scan.Match{Kind: scan.KindValueData, KeyPath: `HKEY_USERS\X`, ValueName: "v", Data: "1"})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "value-data", decoded["kind"])
	assert.Equal(t, `HKEY_USERS\X`, decoded["key_path"])
}

func TestSink_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	var buf bytes.Buffer
	s, err := New(Options{Out: &buf, Path: path, Logger: logging.ForTest(t)})
	require.NoError(t, err)

	s.Write(scan.Match{Kind: scan.KindKeyName, KeyPath: `HKEY_USERS\A`})
	require.NoError(t, s.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous run\nHKEY_USERS\\A\n", string(content))
}

func TestSink_UnwritableFileIsAnError(t *testing.T) {
	_, err := New(Options{
		Out:    &bytes.Buffer{},
		Path:   filepath.Join(t.TempDir(), "no", "such", "dir", "out.txt"),
		Logger: logging.ForTest(t),
	})
	assert.Error(t, err)
}

func TestSink_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	s, err := New(Options{Out: &bytes.Buffer{}, Path: path, Logger: logging.ForTest(t)})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
