package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEpisodeCode(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		wantCode string
		wantS    int
		wantN    int
		wantErr  bool
	}{
		{name: "canonical", input: "show.S03E07.1080p.mkv", wantCode: "S03E07", wantS: 3, wantN: 7},
		{name: "lower case", input: "show.s03e07.mkv", wantCode: "S03E07", wantS: 3, wantN: 7},
		{name: "unpadded", input: "s3e7.mkv", wantCode: "S03E07", wantS: 3, wantN: 7},
		{name: "two digit", input: "Series S12E34 final.mp4", wantCode: "S12E34", wantS: 12, wantN: 34},
		{name: "no code", input: "behind-the-scenes.mkv", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, season, number, err := ParseEpisodeCode(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantS, season)
			assert.Equal(t, tc.wantN, number)
		})
	}
}

func TestDiscover(t *testing.T) {
	ctx := context.Background()

	mk := func(t *testing.T, dir, name string) {
		t.Helper()
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	t.Run("finds episodes sorted by code", func(t *testing.T) {
		dir := t.TempDir()
		mk(t, dir, "show.S01E02.mkv")
		mk(t, filepath.Join(dir, "season1"), "show.s1e1.mp4")
		mk(t, dir, "extras.txt")

		items, err := Discover(ctx, "demo", dir)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "S01E01", items[0].EpisodeCode)
		assert.Equal(t, "S01E02", items[1].EpisodeCode)
		assert.Equal(t, "demo", items[0].Episode.Series)
		assert.Equal(t, 1, items[0].Episode.Season)
		assert.Equal(t, items[0].Episode.VideoPath, items[0].Path)
	})

	t.Run("video without episode code is skipped", func(t *testing.T) {
		dir := t.TempDir()
		mk(t, dir, "show.S01E01.mkv")
		mk(t, dir, "trailer.mkv")

		items, err := Discover(ctx, "demo", dir)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("duplicate episode code fails", func(t *testing.T) {
		dir := t.TempDir()
		mk(t, dir, "show.S01E01.mkv")
		mk(t, dir, "show.S01E01.proper.mp4")

		_, err := Discover(ctx, "demo", dir)
		require.Error(t, err)
		assert.ErrorContains(t, err, "duplicate episode S01E01")
	})
}

func TestArtifactValues(t *testing.T) {
	ep := Episode{Code: "S01E01", Series: "demo", Season: 1, Number: 1, VideoPath: "/v/e1.mkv"}
	a := New(ep, "/out/e1.json")

	t.Run("WithCount copies instead of mutating", func(t *testing.T) {
		b := a.WithCount(42)
		assert.Equal(t, 0, a.Count)
		assert.Equal(t, 42, b.Count)
		assert.Equal(t, a.Path, b.Path)
	})

	t.Run("stringer", func(t *testing.T) {
		assert.Equal(t, "S01E01 (/out/e1.json)", a.String())
	})
}
