package domain

import "time"

// Stage identifies a pipeline stage for progress reporting.
type Stage string

const (
	StageDiscovery Stage = "discovery"
	StageFetch     Stage = "fetch"
	StageChunk     Stage = "chunk"
	StageAnalyze   Stage = "analyze"
	StageDone      Stage = "done"
)

// Status is the state of a video within a stage.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// ProgressRecord is one observed stage/status transition for a video.
// Records live for the duration of a single run unless explicitly
// checkpointed by the caller.
type ProgressRecord struct {
	VideoID   string    `json:"video_id"`
	Stage     Stage     `json:"stage"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
