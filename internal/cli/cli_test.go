package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("positional pipeline path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, done, err := Parse([]string{"pipeline.hcl"}, &out)
		require.NoError(t, err)
		require.False(t, done)
		assert.Equal(t, "pipeline.hcl", cfg.PipelinePath)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, 4, cfg.WorkerCount)
	})

	t.Run("pipeline flag wins over positional", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-pipeline", "a.hcl", "b.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "a.hcl", cfg.PipelinePath)
	})

	t.Run("targets and skip split on commas", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-targets", "probe, index", "-skip", "transcripts", "p.hcl"}, &out)
		require.NoError(t, err)
		assert.Equal(t, []string{"probe", "index"}, cfg.Targets)
		assert.Equal(t, []string{"transcripts"}, cfg.Skip)
	})

	t.Run("force and render flags", func(t *testing.T) {
		var out bytes.Buffer
		cfg, _, err := Parse([]string{"-force", "-render", "p.hcl"}, &out)
		require.NoError(t, err)
		assert.True(t, cfg.ForceRerun)
		assert.True(t, cfg.RenderOnly)
	})

	t.Run("no arguments prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, done, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("invalid log format", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-format", "yaml", "p.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"-log-level", "trace", "p.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("unknown flag", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--nope", "p.hcl"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList("  "))
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitList(" a , , b "))
}
