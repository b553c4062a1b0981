package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"podcast-summary/pkg/domain"
)

var (
	// ErrNoChunks is returned when a video has nothing to analyze.
	ErrNoChunks = errors.New("no chunks to analyze")
	// ErrAllChunksFailed is returned when every chunk analysis failed.
	ErrAllChunksFailed = errors.New("all chunk analyses failed")
)

// digestLimit caps the rolling prior-context digest passed to each chunk
// analysis.
const digestLimit = 600

// Request is one chunk analysis call. PriorDigest summarizes what earlier
// chunks of the same video already surfaced, so the analyzer does not treat
// each chunk as a fresh conversation.
type Request struct {
	VideoID     string
	Chunk       domain.Chunk
	PriorDigest string
}

// AnalyzeFunc analyzes a single chunk. Implementations typically call a
// language model; tests supply scripted functions.
type AnalyzeFunc func(ctx context.Context, req Request) (*domain.AnalysisFragment, error)

// Coordinator runs chunk analyses for one video sequentially, carrying a
// rolling digest forward, tolerating individual chunk failures, and merging
// the fragments into one result.
type Coordinator struct {
	analyze        AnalyzeFunc
	dedupThreshold float64
}

// NewCoordinator creates a coordinator around an analyzer function.
func NewCoordinator(analyze AnalyzeFunc) *Coordinator {
	return &Coordinator{
		analyze:        analyze,
		dedupThreshold: DefaultDedupThreshold,
	}
}

// SetDedupThreshold overrides the near-duplicate similarity threshold used
// when merging. Values outside (0, 1] are ignored.
func (c *Coordinator) SetDedupThreshold(threshold float64) {
	if threshold > 0 && threshold <= 1 {
		c.dedupThreshold = threshold
	}
}

// Analyze processes the video's chunks in order. A failed chunk is logged
// and skipped; the merged result reports Coverage < 1.0 and lists the failed
// chunk indices. Only a cancelled context or a total wipeout is an error.
func (c *Coordinator) Analyze(ctx context.Context, videoID string, chunks []domain.Chunk) (*domain.MergedAnalysis, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNoChunks)
	}

	var (
		fragments []*domain.AnalysisFragment
		failed    []int
		digest    string
	)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frag, err := c.analyze(ctx, Request{
			VideoID:     videoID,
			Chunk:       chunk,
			PriorDigest: digest,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[analysis] video %s chunk %d/%d failed: %v",
				videoID, chunk.Index+1, chunk.TotalCount, err)
			failed = append(failed, chunk.Index)
			continue
		}

		fragments = append(fragments, frag)
		digest = rollDigest(digest, frag)
	}

	if len(fragments) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrAllChunksFailed)
	}

	coverage := float64(len(fragments)) / float64(len(chunks))
	if coverage < 1.0 {
		log.Printf("[analysis] video %s: partial analysis, coverage %.2f (%d of %d chunks)",
			videoID, coverage, len(fragments), len(chunks))
	}

	return mergeFragments(videoID, fragments, coverage, failed, c.dedupThreshold), nil
}

// rollDigest folds a fragment's findings into the rolling digest, keeping
// the most recent material when the limit is exceeded.
func rollDigest(digest string, frag *domain.AnalysisFragment) string {
	var parts []string
	if digest != "" {
		parts = append(parts, digest)
	}
	parts = append(parts, frag.Insights...)
	parts = append(parts, frag.Takeaways...)

	rolled := strings.Join(parts, " | ")
	if len(rolled) > digestLimit {
		cut := len(rolled) - digestLimit
		// Never split a multi-byte rune at the digest head.
		for cut < len(rolled) && !utf8.RuneStart(rolled[cut]) {
			cut++
		}
		rolled = rolled[cut:]
	}
	return rolled
}
