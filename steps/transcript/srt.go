package transcript

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// cue is one subtitle entry parsed from an SRT file.
type cue struct {
	Index   int
	StartMS int64
	EndMS   int64
	Text    string
}

// timingRe matches an SRT timing line: "00:01:02,345 --> 00:01:04,567".
var timingRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})\s*-->\s*(\d{2}):(\d{2}):(\d{2})[,.](\d{3})`)

// parseSRT reads SubRip cues from r. Malformed blocks fail the whole parse:
// a transcript with broken timing is not something to silently truncate.
func parseSRT(r io.Reader) ([]cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var cues []cue
	var current *cue
	var textLines []string

	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(textLines, " "))
			cues = append(cues, *current)
			current = nil
			textLines = nil
		}
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))

		if line == "" {
			flush()
			continue
		}

		if current == nil {
			// Expect a numeric cue index starting a new block.
			idx, err := strconv.Atoi(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: expected cue index, got %q", lineNo, line)
			}
			current = &cue{Index: idx, StartMS: -1}
			continue
		}

		if current.StartMS < 0 {
			m := timingRe.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("line %d: expected timing line, got %q", lineNo, line)
			}
			current.StartMS = srtTimeMS(m[1], m[2], m[3], m[4])
			current.EndMS = srtTimeMS(m[5], m[6], m[7], m[8])
			continue
		}

		textLines = append(textLines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return cues, nil
}

func srtTimeMS(h, m, s, ms string) int64 {
	hh, _ := strconv.ParseInt(h, 10, 64)
	mm, _ := strconv.ParseInt(m, 10, 64)
	ss, _ := strconv.ParseInt(s, 10, 64)
	mss, _ := strconv.ParseInt(ms, 10, 64)
	return ((hh*60+mm)*60+ss)*1000 + mss
}
