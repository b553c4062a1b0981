package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"podcast-summary/pkg/domain"
)

// ErrMalformedFile is returned when a stored transcript file cannot be
// parsed back into its parts.
var ErrMalformedFile = errors.New("malformed transcript file")

const (
	transcriptHeading = "## Transcript"
	metadataFence     = "**Metadata:**\n```json"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Store writes transcripts and summaries as flat markdown files, one per
// video, named <channel>_<date>_<videoID>.md.
type Store struct {
	dir string
}

// NewStore creates the storage directory if needed and returns a store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the storage root.
func (s *Store) Dir() string { return s.dir }

// fileMeta is the machine-readable block appended to each transcript file so
// a stored file round-trips without re-parsing the human-readable header.
type fileMeta struct {
	Video        domain.VideoReference `json:"video"`
	SourceMethod string                `json:"source_method"`
	Confidence   domain.Confidence     `json:"confidence"`
	FetchedAt    time.Time             `json:"fetched_at"`
}

// TranscriptPath returns where the video's transcript file lives.
func (s *Store) TranscriptPath(video domain.VideoReference) string {
	return filepath.Join(s.dir, baseFilename(video)+".md")
}

// AnalysisPath returns where the video's summary file lives.
func (s *Store) AnalysisPath(video domain.VideoReference) string {
	return filepath.Join(s.dir, baseFilename(video)+"_summary.md")
}

// TranscriptExists reports whether the video's transcript is already stored.
func (s *Store) TranscriptExists(video domain.VideoReference) bool {
	_, err := os.Stat(s.TranscriptPath(video))
	return err == nil
}

// StoreTranscript writes the transcript with a metadata header and returns
// the file path.
func (s *Store) StoreTranscript(video domain.VideoReference, result *domain.TranscriptResult) (string, error) {
	meta := fileMeta{
		Video:        video,
		SourceMethod: result.SourceMethod,
		Confidence:   result.Confidence,
		FetchedAt:    result.FetchedAt,
	}
	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transcript metadata: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", displayTitle(video))
	fmt.Fprintf(&sb, "**Channel:** @%s  \n", video.ChannelHandle)
	fmt.Fprintf(&sb, "**Published:** %s  \n", displayDate(video.PublishedAt))
	fmt.Fprintf(&sb, "**Video ID:** %s  \n", video.VideoID)
	fmt.Fprintf(&sb, "**Source:** %s (%s confidence)\n\n", result.SourceMethod, result.Confidence)
	fmt.Fprintf(&sb, "**Extracted:** %s\n\n", result.FetchedAt.UTC().Format("2006-01-02 15:04 UTC"))
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "%s\n\n%s\n\n", transcriptHeading, strings.TrimSpace(result.Text))
	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "%s\n%s\n```\n", metadataFence, metaJSON)

	path := s.TranscriptPath(video)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write transcript file: %w", err)
	}

	log.Printf("[storage] stored transcript: %s", path)
	return path, nil
}

// LoadTranscript reads a stored transcript file back into its video
// reference and transcript text.
func (s *Store) LoadTranscript(path string) (domain.VideoReference, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.VideoReference{}, "", fmt.Errorf("read transcript file: %w", err)
	}
	content := string(raw)

	bodyStart := strings.Index(content, transcriptHeading)
	if bodyStart == -1 {
		return domain.VideoReference{}, "", fmt.Errorf("%s: %w", path, ErrMalformedFile)
	}
	bodyStart += len(transcriptHeading)

	metaStart := strings.Index(content, metadataFence)
	if metaStart == -1 {
		return domain.VideoReference{}, "", fmt.Errorf("%s: %w", path, ErrMalformedFile)
	}

	text := strings.TrimSpace(content[bodyStart:metaStart])
	text = strings.TrimSuffix(text, "---")
	text = strings.TrimSpace(text)

	jsonStart := metaStart + len(metadataFence)
	jsonEnd := strings.Index(content[jsonStart:], "```")
	if jsonEnd == -1 {
		return domain.VideoReference{}, "", fmt.Errorf("%s: %w", path, ErrMalformedFile)
	}

	var meta fileMeta
	if err := json.Unmarshal([]byte(content[jsonStart:jsonStart+jsonEnd]), &meta); err != nil {
		return domain.VideoReference{}, "", fmt.Errorf("%s: parse metadata: %w", path, ErrMalformedFile)
	}

	return meta.Video, text, nil
}

// StoreAnalysis writes the merged analysis as a summary markdown file and
// returns the file path.
func (s *Store) StoreAnalysis(video domain.VideoReference, analysis *domain.MergedAnalysis) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Summary: %s\n\n", displayTitle(video))
	fmt.Fprintf(&sb, "**Channel:** @%s  \n", video.ChannelHandle)
	fmt.Fprintf(&sb, "**Video ID:** %s\n\n", video.VideoID)

	if analysis.Partial() {
		fmt.Fprintf(&sb, "> Partial analysis: %.0f%% of chunks analyzed (failed chunks: %s)\n\n",
			analysis.Coverage*100, formatChunkList(analysis.FailedChunks))
	}

	writeSection(&sb, "Key Insights", analysis.Insights)
	writeSection(&sb, "Notable Quotes", analysis.Quotes)
	writeSection(&sb, "Actionable Takeaways", analysis.Takeaways)

	path := s.AnalysisPath(video)
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write summary file: %w", err)
	}

	log.Printf("[storage] stored summary: %s", path)
	return path, nil
}

// ListTranscripts returns stored transcript paths, optionally filtered by
// channel handle, newest first by modification time. Summary files are
// excluded.
func (s *Store) ListTranscripts(channel string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list storage dir: %w", err)
	}

	type fileInfo struct {
		path    string
		modTime time.Time
	}

	var files []fileInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".md") || strings.HasSuffix(name, "_summary.md") {
			continue
		}
		if channel != "" && !strings.HasPrefix(name, sanitizeFilename(strings.TrimPrefix(channel, "@"))+"_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: filepath.Join(s.dir, name), modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

func baseFilename(video domain.VideoReference) string {
	channel := sanitizeFilename(strings.TrimPrefix(video.ChannelHandle, "@"))
	if channel == "" {
		channel = "unknown"
	}
	date := "unknown-date"
	if !video.PublishedAt.IsZero() {
		date = video.PublishedAt.Format("2006-01-02")
	}
	videoID := sanitizeFilename(video.VideoID)
	return fmt.Sprintf("%s_%s_%s", channel, date, videoID)
}

func sanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "-")
}

func displayTitle(video domain.VideoReference) string {
	if strings.TrimSpace(video.Title) != "" {
		return strings.TrimSpace(video.Title)
	}
	return video.VideoID
}

func displayDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("2006-01-02")
}

func writeSection(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", heading)
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
	sb.WriteString("\n")
}

func formatChunkList(indices []int) string {
	if len(indices) == 0 {
		return "none"
	}
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return strings.Join(parts, ", ")
}
