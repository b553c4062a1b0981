package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/progress"
)

type mockFetcher struct {
	mu      sync.Mutex
	failFor map[string]error
	calls   int
}

func (m *mockFetcher) FetchWithFallback(ctx context.Context, videoID string) (*domain.TranscriptResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if err, ok := m.failFor[videoID]; ok {
		return nil, err
	}
	return &domain.TranscriptResult{
		VideoID:      videoID,
		SourceMethod: "captions_api",
		Text:         "a transcript worth analyzing in detail.",
	}, nil
}

type mockChunker struct{ empty bool }

func (m *mockChunker) Chunk(videoID, text string) []domain.Chunk {
	if m.empty {
		return nil
	}
	return []domain.Chunk{{VideoID: videoID, Index: 0, TotalCount: 1, Text: text}}
}

type mockAnalyzer struct {
	failFor map[string]error
	partial bool
}

func (m *mockAnalyzer) Analyze(ctx context.Context, videoID string, chunks []domain.Chunk) (*domain.MergedAnalysis, error) {
	if err, ok := m.failFor[videoID]; ok {
		return nil, err
	}
	coverage := 1.0
	if m.partial {
		coverage = 0.5
	}
	return &domain.MergedAnalysis{
		VideoID:  videoID,
		Insights: []string{"an insight"},
		Coverage: coverage,
	}, nil
}

type mockStore struct {
	mu          sync.Mutex
	existing    map[string]bool
	transcripts []string
	analyses    []string
	storeErr    error
}

func (m *mockStore) TranscriptExists(video domain.VideoReference) bool {
	return m.existing[video.VideoID]
}

func (m *mockStore) StoreTranscript(video domain.VideoReference, result *domain.TranscriptResult) (string, error) {
	if m.storeErr != nil {
		return "", m.storeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts = append(m.transcripts, video.VideoID)
	return video.VideoID + ".md", nil
}

func (m *mockStore) StoreAnalysis(video domain.VideoReference, analysis *domain.MergedAnalysis) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, video.VideoID)
	return video.VideoID + "_summary.md", nil
}

func videoRefs(ids ...string) []domain.VideoReference {
	out := make([]domain.VideoReference, len(ids))
	for i, id := range ids {
		out[i] = domain.VideoReference{VideoID: id, ChannelHandle: "chan"}
	}
	return out
}

func newTestRunner(fetcher *mockFetcher, chunker *mockChunker, analyzer *mockAnalyzer, store *mockStore, workers int) (*Runner, *progress.Tracker) {
	tracker := progress.NewTracker()
	return New(fetcher, chunker, analyzer, store, tracker, workers), tracker
}

func TestProcessVideos_AllSucceed(t *testing.T) {
	fetcher := &mockFetcher{}
	store := &mockStore{}
	runner, tracker := newTestRunner(fetcher, &mockChunker{}, &mockAnalyzer{}, store, 2)

	summary, err := runner.ProcessVideos(context.Background(), videoRefs("v1", "v2", "v3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 3 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(store.transcripts) != 3 || len(store.analyses) != 3 {
		t.Fatalf("stored %d transcripts and %d analyses, want 3 each",
			len(store.transcripts), len(store.analyses))
	}
	for _, id := range []string{"v1", "v2", "v3"} {
		if !tracker.Completed(id) {
			t.Errorf("video %s not marked completed", id)
		}
	}
}

func TestProcessVideos_SkipsAlreadyStored(t *testing.T) {
	fetcher := &mockFetcher{}
	store := &mockStore{existing: map[string]bool{"v1": true}}
	runner, tracker := newTestRunner(fetcher, &mockChunker{}, &mockAnalyzer{}, store, 1)

	summary, err := runner.ProcessVideos(context.Background(), videoRefs("v1", "v2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Skipped != 1 || summary.Succeeded != 1 {
		t.Fatalf("summary = %+v, want 1 skipped and 1 succeeded", summary)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1", fetcher.calls)
	}

	rec, ok := tracker.StageStatus("v1", domain.StageFetch)
	if !ok || rec.Status != domain.StatusSkipped {
		t.Fatalf("v1 fetch stage = %+v, want skipped", rec)
	}
}

func TestProcessVideos_OneFailureDoesNotStopOthers(t *testing.T) {
	fetcher := &mockFetcher{failFor: map[string]error{"v2": errors.New("transcript unavailable")}}
	store := &mockStore{}
	runner, tracker := newTestRunner(fetcher, &mockChunker{}, &mockAnalyzer{}, store, 1)

	summary, err := runner.ProcessVideos(context.Background(), videoRefs("v1", "v2", "v3"))
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	rec, _ := tracker.StageStatus("v2", domain.StageFetch)
	if rec.Status != domain.StatusFailed {
		t.Fatalf("v2 fetch stage = %+v, want failed", rec)
	}
}

func TestProcessVideos_AllFailedIsError(t *testing.T) {
	fetcher := &mockFetcher{failFor: map[string]error{
		"v1": errors.New("no captions"),
		"v2": errors.New("no captions"),
	}}
	runner, _ := newTestRunner(fetcher, &mockChunker{}, &mockAnalyzer{}, &mockStore{}, 2)

	_, err := runner.ProcessVideos(context.Background(), videoRefs("v1", "v2"))
	if err == nil {
		t.Fatalf("expected error when every video fails")
	}
}

func TestProcessVideos_EmptyChunksFailsVideo(t *testing.T) {
	runner, tracker := newTestRunner(&mockFetcher{}, &mockChunker{empty: true}, &mockAnalyzer{}, &mockStore{}, 1)

	_, err := runner.ProcessVideos(context.Background(), videoRefs("v1"))
	if err == nil {
		t.Fatalf("expected error when the only video produces no chunks")
	}

	rec, _ := tracker.StageStatus("v1", domain.StageChunk)
	if rec.Status != domain.StatusFailed {
		t.Fatalf("chunk stage = %+v, want failed", rec)
	}
}

func TestProcessVideos_PartialAnalysisStillCompletes(t *testing.T) {
	store := &mockStore{}
	runner, tracker := newTestRunner(&mockFetcher{}, &mockChunker{}, &mockAnalyzer{partial: true}, store, 1)

	summary, err := runner.ProcessVideos(context.Background(), videoRefs("v1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if !tracker.Completed("v1") {
		t.Fatalf("partial analysis must still complete the video")
	}

	rec, _ := tracker.StageStatus("v1", domain.StageAnalyze)
	if rec.Reason == "" {
		t.Fatalf("partial analysis must record a coverage reason")
	}
}

func TestProcessVideos_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &mockFetcher{}
	runner, _ := newTestRunner(fetcher, &mockChunker{}, &mockAnalyzer{}, &mockStore{}, 1)

	_, err := runner.ProcessVideos(ctx, videoRefs("v1", "v2"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("no videos should be fetched after cancellation, got %d calls", fetcher.calls)
	}
}

func TestProcessVideos_StoreFailureFailsVideo(t *testing.T) {
	store := &mockStore{storeErr: fmt.Errorf("disk full")}
	runner, tracker := newTestRunner(&mockFetcher{}, &mockChunker{}, &mockAnalyzer{}, store, 1)

	_, err := runner.ProcessVideos(context.Background(), videoRefs("v1"))
	if err == nil {
		t.Fatalf("expected error when storage fails for the only video")
	}

	rec, _ := tracker.StageStatus("v1", domain.StageDone)
	if rec.Status != domain.StatusFailed {
		t.Fatalf("done stage = %+v, want failed", rec)
	}
}
