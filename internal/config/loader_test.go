package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
series {
  name        = "breaking-sad"
  media_dir   = "/media/breaking-sad"
  output_root = "/data/clips/breaking-sad"
}

state {
  backend = "sqlite"
  path    = "/data/clips/state.db"
}

progress {
  url       = "http://localhost:3000"
  namespace = "/pipeline"
}

step "probe" {
  uses  = "media_probe"
  phase = "scraping"

  settings {
    ffprobe_binary = "/usr/bin/ffprobe"
    max_parallel   = 8
  }
}

step "transcripts" {
  uses       = "transcript_normalize"
  phase      = "processing"
  depends_on = ["probe"]

  settings {
    min_clip_chars = 12
  }
}
`

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("valid file", func(t *testing.T) {
		model, err := Load(ctx, writeConfig(t, validConfig))
		require.NoError(t, err)

		assert.Equal(t, "breaking-sad", model.Series.Name)
		assert.Equal(t, "/media/breaking-sad", model.Series.MediaDir)
		assert.Equal(t, "sqlite", model.State.Backend)
		assert.Equal(t, "/data/clips/state.db", model.State.Path)
		require.NotNil(t, model.Progress)
		assert.Equal(t, "/pipeline", model.Progress.Namespace)

		require.Len(t, model.Steps, 2)
		probe := model.Steps[0]
		assert.Equal(t, "probe", probe.ID)
		assert.Equal(t, "media_probe", probe.Uses)
		assert.Equal(t, "scraping", probe.Phase)

		bin, err := probe.Settings.GetString("ffprobe_binary", "ffprobe")
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/ffprobe", bin)
		par, err := probe.Settings.GetInt("max_parallel", 1)
		require.NoError(t, err)
		assert.Equal(t, 8, par)

		assert.Equal(t, []string{"probe"}, model.Steps[1].DependsOn)
	})

	t.Run("missing series block", func(t *testing.T) {
		_, err := Load(ctx, writeConfig(t, `
step "probe" {
  uses = "media_probe"
}
`))
		assert.ErrorContains(t, err, "missing required 'series' block")
	})

	t.Run("no steps", func(t *testing.T) {
		_, err := Load(ctx, writeConfig(t, `
series {
  name        = "x"
  media_dir   = "/m"
  output_root = "/o"
}
`))
		assert.ErrorContains(t, err, "at least one 'step' block")
	})

	t.Run("unknown state backend", func(t *testing.T) {
		_, err := Load(ctx, writeConfig(t, `
series {
  name        = "x"
  media_dir   = "/m"
  output_root = "/o"
}
state {
  backend = "postgres"
}
step "probe" {
  uses = "media_probe"
}
`))
		assert.ErrorContains(t, err, `unknown state backend "postgres"`)
	})

	t.Run("sqlite backend requires a path", func(t *testing.T) {
		_, err := Load(ctx, writeConfig(t, `
series {
  name        = "x"
  media_dir   = "/m"
  output_root = "/o"
}
state {
  backend = "sqlite"
}
step "probe" {
  uses = "media_probe"
}
`))
		assert.ErrorContains(t, err, "requires 'path'")
	})

	t.Run("state defaults to none", func(t *testing.T) {
		model, err := Load(ctx, writeConfig(t, `
series {
  name        = "x"
  media_dir   = "/m"
  output_root = "/o"
}
step "probe" {
  uses = "media_probe"
}
`))
		require.NoError(t, err)
		assert.Equal(t, "none", model.State.Backend)
		assert.Nil(t, model.Progress)
	})

	t.Run("malformed hcl", func(t *testing.T) {
		_, err := Load(ctx, writeConfig(t, `series {`))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"))
		assert.Error(t, err)
	})
}

func TestSettings(t *testing.T) {
	model, err := Load(context.Background(), writeConfig(t, validConfig))
	require.NoError(t, err)
	settings := model.Steps[0].Settings

	t.Run("absent keys fall back", func(t *testing.T) {
		v, err := settings.GetString("missing", "dflt")
		require.NoError(t, err)
		assert.Equal(t, "dflt", v)

		n, err := settings.GetInt("missing", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, n)

		b, err := settings.GetBool("missing", true)
		require.NoError(t, err)
		assert.True(t, b)
	})

	t.Run("type mismatch is an error", func(t *testing.T) {
		_, err := settings.GetInt("ffprobe_binary", 0)
		assert.Error(t, err)
	})
}
