package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, lvl)

	lvl, err = ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, log.WarnLevel, lvl)

	_, err = ParseLevel("chatty")
	require.Error(t, err)
}

func TestConfigureWritesToFile(t *testing.T) {
	prev, prevOut := Logger, output
	t.Cleanup(func() { Logger, output = prev, prevOut })

	path := filepath.Join(t.TempDir(), "llmdb.log")
	require.NoError(t, Configure("debug", path))
	With("merge").Debug("merged layer", "name", "packaged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "merged layer")
	assert.Contains(t, string(data), "merge")
}

func TestLevelFiltersMessages(t *testing.T) {
	prev, prevOut := Logger, output
	t.Cleanup(func() { Logger, output = prev, prevOut })

	var buf bytes.Buffer
	SetOutput(&buf, log.WarnLevel)
	Info("hidden")
	Warn("shown", "kind", "provider")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Same(t, &buf, Writer())
}
