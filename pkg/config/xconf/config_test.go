package xconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string        `koanf:"name"`
	Size    int           `koanf:"size"`
	Timeout time.Duration `koanf:"timeout"`
	Keep    string        `koanf:"keep"`
}

func TestNewFromBytes_OverlaysDefaults(t *testing.T) {
	c, err := NewFromBytes([]byte("app:\n  name: quanta\n  size: 7\n  timeout: 3s\n"), FormatYAML)
	require.NoError(t, err)

	s := sample{Keep: "default"}
	require.NoError(t, c.Unmarshal("app", &s))
	assert.Equal(t, "quanta", s.Name)
	assert.Equal(t, 7, s.Size)
	assert.Equal(t, 3*time.Second, s.Timeout)
	assert.Equal(t, "default", s.Keep)
	assert.True(t, c.Exists("app.size"))
	assert.False(t, c.Exists("app.keep"))
}

func TestNewFromBytes_Errors(t *testing.T) {
	_, err := NewFromBytes(nil, Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewFromBytes([]byte("{not json"), FormatJSON)
	assert.ErrorIs(t, err, ErrParseFailed)

	c, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Reload(), ErrNotReloadable)

	c, err = NewFromBytes([]byte(`{"app":{"size":"many"}}`), FormatJSON)
	require.NoError(t, err)
	var s sample
	assert.ErrorIs(t, c.Unmarshal("app", &s), ErrUnmarshalFailed)
}

func TestNew_FileAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quanta.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app":{"size":1}}`), 0o600))

	c, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, c.Format())
	assert.Equal(t, path, c.Path())

	var s sample
	require.NoError(t, c.Unmarshal("app", &s))
	assert.Equal(t, 1, s.Size)

	require.NoError(t, os.WriteFile(path, []byte(`{"app":{"size":2}}`), 0o600))
	require.NoError(t, c.Reload())
	require.NoError(t, c.Unmarshal("app", &s))
	assert.Equal(t, 2, s.Size)

	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0o600))
	assert.ErrorIs(t, c.Reload(), ErrParseFailed)
	require.NoError(t, c.Unmarshal("app", &s), "old config is kept")
	assert.Equal(t, 2, s.Size)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New("quanta.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)
}
