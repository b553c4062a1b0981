package domain

import (
	"strings"
	"time"
)

// Confidence describes how trustworthy a transcript is.
type Confidence string

const (
	// ConfidenceHigh means the transcript was authored or reviewed by a human.
	ConfidenceHigh Confidence = "high"

	// ConfidenceAutoGenerated means the transcript comes from automatic
	// speech recognition.
	ConfidenceAutoGenerated Confidence = "auto_generated"

	// ConfidenceUnknown means the source does not report provenance.
	ConfidenceUnknown Confidence = "unknown"
)

// Segment is one timed piece of a transcript.
type Segment struct {
	// StartSec and EndSec are offsets from the start of the video, in seconds.
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Text     string  `json:"text"`
}

// TranscriptResult is the authoritative transcript for one video, produced by
// exactly one successful source in the fetch chain.
//
// Invariant: Text is non-empty and equals the concatenation of the segment
// texts modulo whitespace normalization.
type TranscriptResult struct {
	VideoID      string     `json:"video_id"`
	SourceMethod string     `json:"source_method"`
	Text         string     `json:"text"`
	Segments     []Segment  `json:"segments"`
	Confidence   Confidence `json:"confidence"`
	FetchedAt    time.Time  `json:"fetched_at"`
}

// JoinSegments rebuilds the transcript text from segments, separated by
// single spaces. Used by sources that receive timed segments and need the
// flat text, so the Text/Segments invariant holds by construction.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
