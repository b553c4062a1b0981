package domain

// Chunk is a bounded-size contiguous slice of a transcript, sized to fit a
// downstream analysis budget. Index is the only valid iteration order.
//
// Chunks are contiguous over the source text: the span of chunk i+1 begins no
// later than the end of chunk i, so overlap is additive and there are never
// gaps between neighboring chunks.
type Chunk struct {
	// VideoID is the id of the transcript's video.
	VideoID string `json:"video_id"`

	// Index is the zero-based position of this chunk; TotalCount is the
	// number of chunks produced for the transcript.
	Index      int `json:"index"`
	TotalCount int `json:"total_count"`

	// Text is the chunk content, including any overlap carried from the
	// previous chunk.
	Text string `json:"text"`

	// CharStart and CharEnd are the span of this chunk in the source
	// transcript text (CharEnd is exclusive). The span includes the overlap
	// region.
	CharStart int `json:"char_start"`
	CharEnd   int `json:"char_end"`

	// OverlapWithPrevious is the number of characters at the head of Text
	// that repeat the tail of the previous chunk. Zero for the first chunk.
	OverlapWithPrevious int `json:"overlap_with_previous"`
}
