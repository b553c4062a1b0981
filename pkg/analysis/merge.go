package analysis

import (
	"sort"
	"strings"

	"podcast-summary/pkg/domain"
)

// Per-list caps on the merged output, so a ten-chunk episode does not
// produce a fifty-item insight list.
const (
	maxMergedInsights  = 6
	maxMergedQuotes    = 4
	maxMergedTakeaways = 6
)

// DefaultDedupThreshold is the word-overlap similarity above which two items
// are considered the same finding phrased twice. Adjacent chunks share
// overlap text, so near-duplicates are expected, not exceptional.
const DefaultDedupThreshold = 0.8

// mergeFragments combines per-chunk fragments into one analysis, removing
// near-duplicate findings that the chunk overlap produces.
func mergeFragments(videoID string, fragments []*domain.AnalysisFragment, coverage float64, failed []int, threshold float64) *domain.MergedAnalysis {
	var insights, quotes, takeaways []string
	for _, frag := range fragments {
		insights = append(insights, frag.Insights...)
		quotes = append(quotes, frag.Quotes...)
		takeaways = append(takeaways, frag.Takeaways...)
	}

	return &domain.MergedAnalysis{
		VideoID:      videoID,
		Insights:     dedupeAndRank(insights, maxMergedInsights, threshold),
		Quotes:       dedupeAndRank(quotes, maxMergedQuotes, threshold),
		Takeaways:    dedupeAndRank(takeaways, maxMergedTakeaways, threshold),
		Coverage:     coverage,
		FailedChunks: failed,
	}
}

// dedupeAndRank drops items too similar to an earlier item, ranks the
// survivors by specificity (word count, then length), and caps the list.
// Earlier items win ties, so first-chunk phrasings survive.
func dedupeAndRank(items []string, max int, threshold float64) []string {
	if len(items) == 0 {
		return nil
	}

	var unique []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		duplicate := false
		for _, kept := range unique {
			// An identical word set is always a duplicate, so a 1.0
			// threshold still collapses exact repeats.
			sim := wordOverlapSimilarity(item, kept)
			if sim > threshold || sim == 1 {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, item)
		}
	}

	sort.SliceStable(unique, func(i, j int) bool {
		wi, wj := len(strings.Fields(unique[i])), len(strings.Fields(unique[j]))
		if wi != wj {
			return wi > wj
		}
		return len(unique[i]) > len(unique[j])
	})

	if len(unique) > max {
		unique = unique[:max]
	}
	return unique
}

// wordOverlapSimilarity is the share of words the two strings have in
// common, relative to the larger word set. Case-insensitive.
func wordOverlapSimilarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	common := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			common++
		}
	}

	larger := len(wordsA)
	if len(wordsB) > larger {
		larger = len(wordsB)
	}
	return float64(common) / float64(larger)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
