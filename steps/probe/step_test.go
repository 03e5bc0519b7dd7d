package probe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/clipforge/internal/artifact"
	"github.com/vk/clipforge/internal/config"
	"github.com/vk/clipforge/internal/pipeline"
)

// fakeFFprobe writes a shell script that prints a canned report, standing in
// for the real binary.
func fakeFFprobe(t *testing.T, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffprobe script requires a POSIX shell")
	}
	script := "#!/bin/sh\n"
	if exitCode == 0 {
		script += `echo '{"format": {"duration": "1452.3"}, "streams": []}'` + "\n"
	}
	script += fmt.Sprintf("exit %d\n", exitCode)

	path := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func testItem(t *testing.T) (artifact.Artifact, *pipeline.Context) {
	t.Helper()
	videoPath := filepath.Join(t.TempDir(), "show.S01E01.mkv")
	require.NoError(t, os.WriteFile(videoPath, nil, 0o644))
	ep := artifact.Episode{Code: "S01E01", Series: "demo", Season: 1, Number: 1, VideoPath: videoPath}
	run := pipeline.NewContext("demo", t.TempDir(), false, nil, nil)
	return artifact.New(ep, videoPath), run
}

func TestNew(t *testing.T) {
	t.Run("settings override defaults", func(t *testing.T) {
		s, err := New(config.Settings{
			"ffprobe_binary": cty.StringVal("/opt/ffprobe"),
			"max_parallel":   cty.NumberIntVal(8),
		})
		require.NoError(t, err)
		step := s.(*Step)
		assert.Equal(t, "/opt/ffprobe", step.binary)
		assert.Equal(t, 8, step.MaxParallel())
	})

	t.Run("no settings falls back to PATH lookup", func(t *testing.T) {
		s, err := New(nil)
		require.NoError(t, err)
		assert.Equal(t, "ffprobe", s.(*Step).binary)
	})

	t.Run("wrong setting type", func(t *testing.T) {
		_, err := New(config.Settings{"max_parallel": cty.StringVal("many")})
		assert.Error(t, err)
	})
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("writes the probe report", func(t *testing.T) {
		s := &Step{binary: fakeFFprobe(t, 0)}
		item, run := testItem(t)

		out, err := s.Process(ctx, item, run)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(run.EpisodeDir("S01E01"), "probe.json"), out.Path)

		data, err := os.ReadFile(out.Path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "1452.3")
	})

	t.Run("probe failure leaves no output", func(t *testing.T) {
		s := &Step{binary: fakeFFprobe(t, 1)}
		item, run := testItem(t)

		_, err := s.Process(ctx, item, run)
		require.Error(t, err)
		_, statErr := os.Stat(s.CachePath(item, run))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestLoadFromCache(t *testing.T) {
	s := &Step{}
	item, run := testItem(t)

	t.Run("existing report", func(t *testing.T) {
		path := s.CachePath(item, run)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

		art, err := s.LoadFromCache(path, item, run)
		require.NoError(t, err)
		assert.Equal(t, path, art.Path)
	})

	t.Run("missing report", func(t *testing.T) {
		_, err := s.LoadFromCache(filepath.Join(t.TempDir(), "probe.json"), item, run)
		assert.Error(t, err)
	})
}
