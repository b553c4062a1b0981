package transcript

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun    = regexp.MustCompile(`\s+`)
	bracketArtifact  = regexp.MustCompile(`\[[^\]]*\]`) // [Music], [Applause]
	parenArtifact    = regexp.MustCompile(`\([^)]*\)`)  // (unclear), (inaudible)
	spaceBeforePunct = regexp.MustCompile(`\s+([.!?])`)
	missingSentGap   = regexp.MustCompile(`([.!?])\s*([A-Z])`)
)

// Clean normalizes raw transcript text: collapses whitespace, strips the
// bracketed artifacts caption tracks carry, and repairs punctuation spacing.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	text = bracketArtifact.ReplaceAllString(text, "")
	text = parenArtifact.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = missingSentGap.ReplaceAllString(text, "$1 $2")

	return strings.TrimSpace(text)
}

// cleanSegments cleans each segment's text and drops segments left empty,
// preserving order. Cleaning per segment keeps the joined text equal to the
// segment concatenation.
func cleanSegments(segments []segmentText) []segmentText {
	out := make([]segmentText, 0, len(segments))
	for _, seg := range segments {
		seg.Text = Clean(seg.Text)
		if seg.Text == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}

// segmentText is an intermediate timed caption line before it becomes a
// domain.Segment.
type segmentText struct {
	Start float64
	Dur   float64
	Text  string
}
