package progress

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"podcast-summary/pkg/domain"
)

// Tracker records per-video, per-stage pipeline status. Safe for concurrent
// use; the runner's workers report into one shared tracker.
type Tracker struct {
	mu     sync.Mutex
	runID  string
	latest map[string]map[domain.Stage]domain.ProgressRecord
	order  []string // video ids in first-seen order, for stable summaries
}

// NewTracker creates a tracker with a fresh run id.
func NewTracker() *Tracker {
	return &Tracker{
		runID:  uuid.NewString(),
		latest: make(map[string]map[domain.Stage]domain.ProgressRecord),
	}
}

// RunID identifies this pipeline run in logs and output files.
func (t *Tracker) RunID() string { return t.runID }

// Update records a stage transition for a video, replacing any earlier
// status for the same stage.
func (t *Tracker) Update(videoID string, stage domain.Stage, status domain.Status, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stages, ok := t.latest[videoID]
	if !ok {
		stages = make(map[domain.Stage]domain.ProgressRecord)
		t.latest[videoID] = stages
		t.order = append(t.order, videoID)
	}

	stages[stage] = domain.ProgressRecord{
		VideoID:   videoID,
		Stage:     stage,
		Status:    status,
		Reason:    reason,
		Timestamp: time.Now(),
	}

	if reason != "" {
		log.Printf("[progress] %s: %s %s (%s)", videoID, stage, status, reason)
	} else {
		log.Printf("[progress] %s: %s %s", videoID, stage, status)
	}
}

// StageStatus returns the latest record for a video's stage, if any.
func (t *Tracker) StageStatus(videoID string, stage domain.Stage) (domain.ProgressRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.latest[videoID][stage]
	return rec, ok
}

// Completed reports whether the video reached the done stage successfully.
func (t *Tracker) Completed(videoID string) bool {
	rec, ok := t.StageStatus(videoID, domain.StageDone)
	return ok && rec.Status == domain.StatusSuccess
}

// Snapshot returns a copy of all current records, grouped by video.
func (t *Tracker) Snapshot() map[string][]domain.ProgressRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string][]domain.ProgressRecord, len(t.latest))
	for videoID, stages := range t.latest {
		records := make([]domain.ProgressRecord, 0, len(stages))
		for _, rec := range stages {
			records = append(records, rec)
		}
		out[videoID] = records
	}
	return out
}

// Summary counts videos by final outcome.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// Summary tallies outcomes across all tracked videos. A video counts as
// failed if any stage failed, skipped if its terminal record is a skip, and
// succeeded if it completed the done stage.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{Total: len(t.order)}
	for _, videoID := range t.order {
		stages := t.latest[videoID]
		switch {
		case anyStatus(stages, domain.StatusFailed):
			s.Failed++
		case stages[domain.StageDone].Status == domain.StatusSuccess:
			s.Succeeded++
		case anyStatus(stages, domain.StatusSkipped):
			s.Skipped++
		}
	}
	return s
}

func anyStatus(stages map[domain.Stage]domain.ProgressRecord, status domain.Status) bool {
	for _, rec := range stages {
		if rec.Status == status {
			return true
		}
	}
	return false
}
