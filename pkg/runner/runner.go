package runner

import (
	"context"
	"fmt"
	"log"
	"sync"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/progress"
)

// TranscriptFetcher resolves a video id to a transcript.
type TranscriptFetcher interface {
	FetchWithFallback(ctx context.Context, videoID string) (*domain.TranscriptResult, error)
}

// ContentChunker splits transcript text into chunks.
type ContentChunker interface {
	Chunk(videoID, text string) []domain.Chunk
}

// Analyzer turns a video's chunks into one merged analysis.
type Analyzer interface {
	Analyze(ctx context.Context, videoID string, chunks []domain.Chunk) (*domain.MergedAnalysis, error)
}

// Store persists transcripts and summaries.
type Store interface {
	TranscriptExists(video domain.VideoReference) bool
	StoreTranscript(video domain.VideoReference, result *domain.TranscriptResult) (string, error)
	StoreAnalysis(video domain.VideoReference, analysis *domain.MergedAnalysis) (string, error)
}

// Runner drives the per-video pipeline across a bounded worker pool. Each
// video runs its stages sequentially on one worker; videos run concurrently
// up to the configured worker count.
type Runner struct {
	fetcher     TranscriptFetcher
	chunker     ContentChunker
	analyzer    Analyzer
	store       Store
	tracker     *progress.Tracker
	workerCount int
}

// New creates a runner. A non-positive worker count falls back to 1.
func New(fetcher TranscriptFetcher, chunker ContentChunker, analyzer Analyzer, store Store, tracker *progress.Tracker, workerCount int) *Runner {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Runner{
		fetcher:     fetcher,
		chunker:     chunker,
		analyzer:    analyzer,
		store:       store,
		tracker:     tracker,
		workerCount: workerCount,
	}
}

// ProcessVideos runs the pipeline for each video and returns the run
// summary. Individual video failures are recorded in the tracker; the only
// error returns are a cancelled context or a run where every video failed.
func (r *Runner) ProcessVideos(ctx context.Context, videos []domain.VideoReference) (progress.Summary, error) {
	if len(videos) == 0 {
		return r.tracker.Summary(), nil
	}

	jobChan := make(chan domain.VideoReference, len(videos))
	for _, video := range videos {
		jobChan <- video
	}
	close(jobChan)

	type result struct {
		videoID string
		skipped bool
		err     error
	}
	resultsChan := make(chan result, len(videos))

	var wg sync.WaitGroup
	for i := 0; i < r.workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for video := range jobChan {
				if ctx.Err() != nil {
					return
				}
				skipped, err := r.processVideo(ctx, video)
				resultsChan <- result{videoID: video.VideoID, skipped: skipped, err: err}
				if err != nil {
					log.Printf("[runner] worker %d: video %s failed: %v", workerID, video.VideoID, err)
				}
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	var processed, skipped, failed int
	for res := range resultsChan {
		switch {
		case res.err != nil:
			failed++
		case res.skipped:
			skipped++
		default:
			processed++
		}
	}

	if err := ctx.Err(); err != nil {
		return r.tracker.Summary(), err
	}

	log.Printf("[runner] run complete: %d processed, %d skipped, %d failed (total %d)",
		processed, skipped, failed, len(videos))

	if failed > 0 && processed == 0 && skipped == 0 {
		return r.tracker.Summary(), fmt.Errorf("all %d videos failed to process", failed)
	}
	return r.tracker.Summary(), nil
}

// processVideo runs fetch, chunk, analyze, and store for one video. The
// skipped return is true when the video was already processed in an earlier
// run.
func (r *Runner) processVideo(ctx context.Context, video domain.VideoReference) (bool, error) {
	if r.store.TranscriptExists(video) {
		r.tracker.Update(video.VideoID, domain.StageFetch, domain.StatusSkipped, "transcript already stored")
		return true, nil
	}

	r.tracker.Update(video.VideoID, domain.StageFetch, domain.StatusRunning, "")
	transcript, err := r.fetcher.FetchWithFallback(ctx, video.VideoID)
	if err != nil {
		r.tracker.Update(video.VideoID, domain.StageFetch, domain.StatusFailed, err.Error())
		return false, fmt.Errorf("fetch transcript: %w", err)
	}
	r.tracker.Update(video.VideoID, domain.StageFetch, domain.StatusSuccess, "")

	r.tracker.Update(video.VideoID, domain.StageChunk, domain.StatusRunning, "")
	chunks := r.chunker.Chunk(video.VideoID, transcript.Text)
	if len(chunks) == 0 {
		r.tracker.Update(video.VideoID, domain.StageChunk, domain.StatusFailed, "empty transcript after cleaning")
		return false, fmt.Errorf("video %s: no chunks produced", video.VideoID)
	}
	r.tracker.Update(video.VideoID, domain.StageChunk, domain.StatusSuccess,
		fmt.Sprintf("%d chunks", len(chunks)))

	r.tracker.Update(video.VideoID, domain.StageAnalyze, domain.StatusRunning, "")
	analysis, err := r.analyzer.Analyze(ctx, video.VideoID, chunks)
	if err != nil {
		r.tracker.Update(video.VideoID, domain.StageAnalyze, domain.StatusFailed, err.Error())
		return false, fmt.Errorf("analyze: %w", err)
	}
	reason := ""
	if analysis.Partial() {
		reason = fmt.Sprintf("partial coverage %.2f", analysis.Coverage)
	}
	r.tracker.Update(video.VideoID, domain.StageAnalyze, domain.StatusSuccess, reason)

	if _, err := r.store.StoreTranscript(video, transcript); err != nil {
		r.tracker.Update(video.VideoID, domain.StageDone, domain.StatusFailed, err.Error())
		return false, fmt.Errorf("store transcript: %w", err)
	}
	if _, err := r.store.StoreAnalysis(video, analysis); err != nil {
		r.tracker.Update(video.VideoID, domain.StageDone, domain.StatusFailed, err.Error())
		return false, fmt.Errorf("store analysis: %w", err)
	}

	r.tracker.Update(video.VideoID, domain.StageDone, domain.StatusSuccess, "")
	return false, nil
}
