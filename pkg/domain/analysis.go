package domain

// AnalysisFragment is the structured analysis of a single chunk, returned by
// the external analysis collaborator. Transient: fragments only live until the
// coordinator merges them.
type AnalysisFragment struct {
	ChunkIndex int      `json:"chunk_index"`
	Insights   []string `json:"insights"`
	Quotes     []string `json:"quotes"`
	Takeaways  []string `json:"takeaways"`
}

// MergedAnalysis is the final analysis artifact for one video, combining the
// per-chunk fragments in chunk order with cross-chunk duplicates removed.
type MergedAnalysis struct {
	VideoID   string   `json:"video_id"`
	Insights  []string `json:"insights"`
	Quotes    []string `json:"quotes"`
	Takeaways []string `json:"takeaways"`

	// Coverage is the fraction of chunks that were successfully analyzed.
	// Anything below 1.0 is a partial result and must be surfaced as such.
	Coverage float64 `json:"coverage"`

	// FailedChunks lists the indices of chunks whose analysis failed.
	FailedChunks []int `json:"failed_chunks,omitempty"`
}

// Partial reports whether some chunks failed analysis.
func (m *MergedAnalysis) Partial() bool {
	return m.Coverage < 1.0
}
