package transcript

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/httpclient"
	"podcast-summary/pkg/retry"
)

// defaultCaptionEndpoint is the platform's timedtext caption service.
const defaultCaptionEndpoint = "https://video.google.com/timedtext"

// CaptionsSource fetches transcripts from the platform's caption service.
// It is the cheapest and highest-fidelity strategy, so it runs first in the
// source chain.
type CaptionsSource struct {
	client    *httpclient.HTTPClient
	endpoint  string
	languages []string
}

// NewCaptionsSource creates a captions source with English language
// preferences, matching the order manual tracks are preferred in.
func NewCaptionsSource() *CaptionsSource {
	return &CaptionsSource{
		client:    httpclient.NewClient(httpclient.BrowserClient),
		endpoint:  defaultCaptionEndpoint,
		languages: []string{"en", "en-US", "en-GB"},
	}
}

// NewCaptionsSourceWithEndpoint creates a captions source against a custom
// endpoint. Used by tests.
func NewCaptionsSourceWithEndpoint(endpoint string) *CaptionsSource {
	s := NewCaptionsSource()
	s.endpoint = endpoint
	return s
}

// Name implements Source.
func (s *CaptionsSource) Name() string { return "captions_api" }

// Classify implements Source: absence of captions can never be fixed by
// retrying; rate limits and transport errors can.
func (s *CaptionsSource) Classify(err error) retry.Class {
	if errors.Is(err, ErrNoCaptions) || errors.Is(err, ErrEmptyTranscript) {
		return retry.Fatal
	}
	return classifyCommon(err)
}

// Fetch lists the video's caption tracks, picks the best English track
// (manual over auto-generated), downloads it, and assembles the result.
func (s *CaptionsSource) Fetch(ctx context.Context, videoID string) (*domain.TranscriptResult, error) {
	tracks, err := s.listTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}

	track := s.pickTrack(tracks)

	lines, err := s.fetchTrack(ctx, videoID, track)
	if err != nil {
		return nil, err
	}

	lines = cleanSegments(lines)
	if len(lines) == 0 {
		return nil, ErrEmptyTranscript
	}

	segments := make([]domain.Segment, 0, len(lines))
	for _, line := range lines {
		segments = append(segments, domain.Segment{
			StartSec: line.Start,
			EndSec:   line.Start + line.Dur,
			Text:     line.Text,
		})
	}

	confidence := domain.ConfidenceHigh
	if track.Kind == "asr" {
		confidence = domain.ConfidenceAutoGenerated
	}

	return &domain.TranscriptResult{
		VideoID:      videoID,
		SourceMethod: s.Name(),
		Text:         domain.JoinSegments(segments),
		Segments:     segments,
		Confidence:   confidence,
		FetchedAt:    time.Now(),
	}, nil
}

// captionTrack is one entry of the caption service's track listing.
type captionTrack struct {
	LangCode string `xml:"lang_code,attr"`
	Name     string `xml:"name,attr"`
	Kind     string `xml:"kind,attr"` // "asr" for auto-generated tracks
}

type trackListResponse struct {
	XMLName xml.Name       `xml:"transcript_list"`
	Tracks  []captionTrack `xml:"track"`
}

type timedTextResponse struct {
	XMLName xml.Name    `xml:"transcript"`
	Lines   []timedLine `xml:"text"`
}

type timedLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

func (s *CaptionsSource) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	listURL := fmt.Sprintf("%s?type=list&v=%s", s.endpoint, url.QueryEscape(videoID))

	body, err := s.get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		// The caption service answers an empty 200 body for videos with
		// captions disabled.
		return nil, ErrNoCaptions
	}

	var list trackListResponse
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("parse track list: %w", ErrNoCaptions)
	}

	return list.Tracks, nil
}

// pickTrack prefers a manual track in language preference order, then an
// auto-generated one, then whatever the listing offers first.
func (s *CaptionsSource) pickTrack(tracks []captionTrack) captionTrack {
	for _, lang := range s.languages {
		for _, track := range tracks {
			if track.LangCode == lang && track.Kind != "asr" {
				return track
			}
		}
	}
	for _, lang := range s.languages {
		for _, track := range tracks {
			if track.LangCode == lang {
				return track
			}
		}
	}
	return tracks[0]
}

func (s *CaptionsSource) fetchTrack(ctx context.Context, videoID string, track captionTrack) ([]segmentText, error) {
	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", track.LangCode)
	if track.Kind != "" {
		params.Set("kind", track.Kind)
	}
	if track.Name != "" {
		params.Set("name", track.Name)
	}

	body, err := s.get(ctx, s.endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrNoCaptions
	}

	var tt timedTextResponse
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext: %w", ErrParse)
	}

	lines := make([]segmentText, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		lines = append(lines, segmentText{Start: line.Start, Dur: line.Dur, Text: line.Text})
	}
	return lines, nil
}

// get performs a GET and maps HTTP statuses onto the source error taxonomy.
func (s *CaptionsSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("caption service request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{URL: rawURL}
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoCaptions
	case resp.StatusCode != http.StatusOK:
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read caption response: %w", err)
	}
	return body, nil
}
