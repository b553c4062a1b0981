package chunker

import (
	"log"
	"regexp"
	"strings"
	"unicode"

	"podcast-summary/pkg/domain"
)

const (
	// DefaultMaxChunkSize is the character budget per chunk.
	DefaultMaxChunkSize = 8000
	// DefaultOverlap is the number of tail characters each chunk shares with
	// its successor so analysis keeps conversational context across the cut.
	DefaultOverlap = 500
	// boundaryWindow bounds the backward search for a sentence ending when
	// closing a chunk.
	boundaryWindow = 200
)

var sentenceEnding = regexp.MustCompile(`[.!?]\s`)

// Chunker splits transcripts into overlapping chunks that fit a character
// budget, preferring sentence boundaries over mid-sentence cuts.
type Chunker struct {
	maxSize int
	overlap int
}

// New creates a chunker. Non-positive arguments fall back to the defaults,
// and the overlap is clamped below half the chunk size so the walk always
// makes progress.
func New(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= maxSize/2 {
		overlap = maxSize / 2
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Chunk splits text into chunks for the given video. The chunks cover the
// full text in order: every chunk after the first starts inside its
// predecessor by the overlap amount, and indices run 0..TotalCount-1.
//
// Cut selection per chunk, in preference order:
//  1. the last sentence ending within the final boundaryWindow characters
//  2. the last whitespace within that window
//  3. a hard cut at the budget, for pathological unbroken runs
func (c *Chunker) Chunk(videoID, text string) []domain.Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if len(text) <= c.maxSize {
		return []domain.Chunk{{
			VideoID:    videoID,
			Index:      0,
			TotalCount: 1,
			Text:       text,
			CharStart:  0,
			CharEnd:    len(text),
		}}
	}

	log.Printf("[chunker] splitting %d chars for video %s", len(text), videoID)

	var chunks []domain.Chunk
	pos := 0
	for pos < len(text) {
		end := pos + c.maxSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.cutPoint(text, pos, end)
		}

		chunks = append(chunks, domain.Chunk{
			VideoID:   videoID,
			Text:      text[pos:end],
			CharStart: pos,
			CharEnd:   end,
		})

		if end == len(text) {
			break
		}

		next := end - c.overlap
		if next <= pos {
			// Overlap would rewind past the chunk we just emitted; skip it
			// rather than loop forever.
			next = end
		}
		pos = next
	}

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].TotalCount = len(chunks)
		if i > 0 {
			chunks[i].OverlapWithPrevious = chunks[i-1].CharEnd - chunks[i].CharStart
		}
	}

	log.Printf("[chunker] created %d chunks for video %s", len(chunks), videoID)
	return chunks
}

// cutPoint picks where to close a chunk that would otherwise end at limit.
func (c *Chunker) cutPoint(text string, start, limit int) int {
	windowStart := limit - boundaryWindow
	if windowStart < start {
		windowStart = start
	}
	window := text[windowStart:limit]

	// Last sentence ending in the window.
	if locs := sentenceEnding.FindAllStringIndex(window, -1); len(locs) > 0 {
		return windowStart + locs[len(locs)-1][1]
	}

	// Last whitespace in the window.
	if idx := lastSpace(window); idx > 0 {
		return windowStart + idx + 1
	}

	// No break at all: force the cut.
	return limit
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if unicode.IsSpace(rune(s[i])) {
			return i
		}
	}
	return -1
}
