package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podcast-summary/pkg/domain"
)

func testVideo() domain.VideoReference {
	return domain.VideoReference{
		VideoID:       "abc123",
		ChannelHandle: "somechannel",
		Title:         "Episode 42: On Leverage",
		PublishedAt:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func testResult() *domain.TranscriptResult {
	return &domain.TranscriptResult{
		VideoID:      "abc123",
		SourceMethod: "captions_api",
		Text:         "welcome to the show. today we talk about leverage.",
		Confidence:   domain.ConfidenceHigh,
		FetchedAt:    time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC),
	}
}

func TestStoreTranscript_RoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	video := testVideo()
	path, err := store.StoreTranscript(video, testResult())
	if err != nil {
		t.Fatalf("StoreTranscript: %v", err)
	}

	wantName := "somechannel_2026-08-20_abc123.md"
	if filepath.Base(path) != wantName {
		t.Fatalf("filename = %q, want %q", filepath.Base(path), wantName)
	}

	gotVideo, gotText, err := store.LoadTranscript(path)
	if err != nil {
		t.Fatalf("LoadTranscript: %v", err)
	}
	if gotVideo.VideoID != video.VideoID || gotVideo.ChannelHandle != video.ChannelHandle {
		t.Errorf("round-tripped video = %+v", gotVideo)
	}
	if gotVideo.Title != video.Title {
		t.Errorf("title = %q, want %q", gotVideo.Title, video.Title)
	}
	if gotText != testResult().Text {
		t.Errorf("text = %q, want %q", gotText, testResult().Text)
	}
}

func TestTranscriptExists(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	video := testVideo()
	if store.TranscriptExists(video) {
		t.Fatalf("transcript must not exist before storing")
	}
	if _, err := store.StoreTranscript(video, testResult()); err != nil {
		t.Fatalf("StoreTranscript: %v", err)
	}
	if !store.TranscriptExists(video) {
		t.Fatalf("transcript must exist after storing")
	}
}

func TestLoadTranscript_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	path := filepath.Join(dir, "garbage.md")
	if err := os.WriteFile(path, []byte("not a transcript file"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, _, err := store.LoadTranscript(path); !errors.Is(err, ErrMalformedFile) {
		t.Fatalf("expected ErrMalformedFile, got %v", err)
	}
}

func TestStoreAnalysis_WritesSummarySections(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	analysis := &domain.MergedAnalysis{
		VideoID:   "abc123",
		Insights:  []string{"leverage compounds"},
		Quotes:    []string{"assets earn while you sleep"},
		Takeaways: []string{"build specific knowledge"},
		Coverage:  1.0,
	}

	path, err := store.StoreAnalysis(testVideo(), analysis)
	if err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}
	if !strings.HasSuffix(path, "_summary.md") {
		t.Fatalf("summary path = %q", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	content := string(raw)
	for _, want := range []string{"Key Insights", "leverage compounds", "Notable Quotes", "Actionable Takeaways"} {
		if !strings.Contains(content, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if strings.Contains(content, "Partial analysis") {
		t.Errorf("full-coverage summary must not carry a partial warning")
	}
}

func TestStoreAnalysis_PartialCoverageNote(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	analysis := &domain.MergedAnalysis{
		VideoID:      "abc123",
		Insights:     []string{"one finding"},
		Coverage:     2.0 / 3.0,
		FailedChunks: []int{1},
	}

	path, err := store.StoreAnalysis(testVideo(), analysis)
	if err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "Partial analysis") {
		t.Fatalf("partial summary must carry a coverage note")
	}
}

func TestListTranscripts_FiltersChannelAndSkipsSummaries(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	videoA := testVideo()
	videoB := domain.VideoReference{
		VideoID:       "zzz999",
		ChannelHandle: "otherchannel",
		PublishedAt:   time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
	}

	if _, err := store.StoreTranscript(videoA, testResult()); err != nil {
		t.Fatalf("StoreTranscript A: %v", err)
	}
	if _, err := store.StoreTranscript(videoB, testResult()); err != nil {
		t.Fatalf("StoreTranscript B: %v", err)
	}
	if _, err := store.StoreAnalysis(videoA, &domain.MergedAnalysis{Coverage: 1.0}); err != nil {
		t.Fatalf("StoreAnalysis: %v", err)
	}

	all, err := store.ListTranscripts("")
	if err != nil {
		t.Fatalf("ListTranscripts: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 transcripts, got %d: %v", len(all), all)
	}

	filtered, err := store.ListTranscripts("somechannel")
	if err != nil {
		t.Fatalf("ListTranscripts filtered: %v", err)
	}
	if len(filtered) != 1 || !strings.Contains(filtered[0], "somechannel") {
		t.Fatalf("expected only somechannel transcript, got %v", filtered)
	}
}

func TestBaseFilename_SanitizesUnsafeCharacters(t *testing.T) {
	video := domain.VideoReference{
		VideoID:       "a/b?c",
		ChannelHandle: "@weird channel!",
		PublishedAt:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	got := baseFilename(video)
	if strings.ContainsAny(got, "/?! @") {
		t.Fatalf("filename not sanitized: %q", got)
	}
}
