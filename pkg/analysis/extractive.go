package analysis

import (
	"context"
	"regexp"
	"strings"

	"podcast-summary/pkg/domain"
)

// Per-chunk caps for the extractive analyzer, kept below the merge caps so
// no single chunk dominates the merged result.
const (
	maxChunkInsights  = 3
	maxChunkQuotes    = 2
	maxChunkTakeaways = 3
)

var sentenceSplit = regexp.MustCompile(`[.!?]+\s+`)

// Cue phrases that mark a sentence as carrying an insight, an opinionated
// quote, or actionable advice.
var (
	insightCues = []string{
		"the key", "what matters", "important", "the reason",
		"turns out", "realized", "the insight", "fundamentally",
		"the difference between", "most people",
	}
	quoteCues = []string{
		"i think", "i believe", "in my experience", "my view",
		"i would argue", "i learned",
	}
	takeawayCues = []string{
		"you should", "you need to", "make sure", "focus on",
		"avoid", "start with", "don't", "the way to",
	}
)

// NewExtractiveAnalyzer returns an AnalyzeFunc that extracts findings from
// chunk text by cue-phrase matching. It stands in for a model-backed
// analyzer and needs no network access; swap in a different AnalyzeFunc to
// use one.
func NewExtractiveAnalyzer() AnalyzeFunc {
	return func(ctx context.Context, req Request) (*domain.AnalysisFragment, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frag := &domain.AnalysisFragment{ChunkIndex: req.Chunk.Index}
		for _, sentence := range splitSentences(req.Chunk.Text) {
			// Anything the rolling digest already carries was surfaced by an
			// earlier chunk; the overlap region repeats it verbatim.
			if req.PriorDigest != "" && strings.Contains(req.PriorDigest, sentence) {
				continue
			}

			lower := strings.ToLower(sentence)
			switch {
			case len(frag.Takeaways) < maxChunkTakeaways && containsAny(lower, takeawayCues):
				frag.Takeaways = append(frag.Takeaways, sentence)
			case len(frag.Quotes) < maxChunkQuotes && containsAny(lower, quoteCues):
				frag.Quotes = append(frag.Quotes, sentence)
			case len(frag.Insights) < maxChunkInsights && containsAny(lower, insightCues):
				frag.Insights = append(frag.Insights, sentence)
			}
		}
		return frag, nil
	}
}

// splitSentences breaks text into trimmed sentences, dropping fragments too
// short to carry a finding.
func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if wordCount(s) >= 5 {
			out = append(out, s)
		}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}
