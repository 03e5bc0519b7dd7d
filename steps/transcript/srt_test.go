package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSRT(t *testing.T) {
	t.Run("multi-cue file", func(t *testing.T) {
		input := strings.Join([]string{
			"1",
			"00:00:01,000 --> 00:00:03,500",
			"Say my name.",
			"",
			"2",
			"00:00:04,000 --> 00:00:06,250",
			"You're",
			"goddamn right.",
			"",
		}, "\n")

		cues, err := parseSRT(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, cues, 2)

		assert.Equal(t, 1, cues[0].Index)
		assert.Equal(t, int64(1000), cues[0].StartMS)
		assert.Equal(t, int64(3500), cues[0].EndMS)
		assert.Equal(t, "Say my name.", cues[0].Text)

		// Multi-line text collapses to one line.
		assert.Equal(t, "You're goddamn right.", cues[1].Text)
	})

	t.Run("dot millisecond separator", func(t *testing.T) {
		input := "1\n00:00:01.000 --> 00:00:02.000\nhi\n"
		cues, err := parseSRT(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, cues, 1)
		assert.Equal(t, int64(1000), cues[0].StartMS)
	})

	t.Run("missing trailing blank line still flushes", func(t *testing.T) {
		input := "1\n00:00:01,000 --> 00:00:02,000\nlast cue"
		cues, err := parseSRT(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, cues, 1)
		assert.Equal(t, "last cue", cues[0].Text)
	})

	t.Run("hour offsets", func(t *testing.T) {
		input := "7\n01:02:03,004 --> 01:02:05,006\nlate cue\n"
		cues, err := parseSRT(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, cues, 1)
		assert.Equal(t, 7, cues[0].Index)
		assert.Equal(t, int64(3723004), cues[0].StartMS)
		assert.Equal(t, int64(3725006), cues[0].EndMS)
	})

	t.Run("bad cue index fails the parse", func(t *testing.T) {
		input := "one\n00:00:01,000 --> 00:00:02,000\nhi\n"
		_, err := parseSRT(strings.NewReader(input))
		require.Error(t, err)
		assert.ErrorContains(t, err, "expected cue index")
		assert.ErrorContains(t, err, "line 1")
	})

	t.Run("bad timing line fails the parse", func(t *testing.T) {
		input := "1\n00:00:01 to 00:00:02\nhi\n"
		_, err := parseSRT(strings.NewReader(input))
		require.Error(t, err)
		assert.ErrorContains(t, err, "expected timing line")
	})

	t.Run("empty input yields no cues", func(t *testing.T) {
		cues, err := parseSRT(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, cues)
	})
}
