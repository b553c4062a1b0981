package transcript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/httpclient"
	"podcast-summary/pkg/retry"
)

// defaultMirrorURL is the third-party transcript mirror the scrape source
// reads. %s is the video id.
const defaultMirrorURL = "https://youtubetranscript.com/?v=%s"

// minScrapedLength guards against mirror pages that render an error message
// instead of a transcript.
const minScrapedLength = 100

// ScrapeSource extracts transcripts from a third-party mirror page. Higher
// latency and lower reliability than the captions service; it runs as a
// fallback, and its results carry no timing metadata.
type ScrapeSource struct {
	client    *httpclient.HTTPClient
	mirrorURL string
}

// NewScrapeSource creates a scrape source against the default mirror.
func NewScrapeSource() *ScrapeSource {
	return &ScrapeSource{
		client:    httpclient.NewClient(httpclient.PlainClient),
		mirrorURL: defaultMirrorURL,
	}
}

// NewScrapeSourceWithMirror creates a scrape source against a custom mirror
// URL pattern (%s is replaced by the video id). Used by tests.
func NewScrapeSourceWithMirror(pattern string) *ScrapeSource {
	s := NewScrapeSource()
	s.mirrorURL = pattern
	return s
}

// Name implements Source.
func (s *ScrapeSource) Name() string { return "mirror_scrape" }

// Classify implements Source: an unparseable page stays unparseable.
func (s *ScrapeSource) Classify(err error) retry.Class {
	if errors.Is(err, ErrParse) || errors.Is(err, ErrEmptyTranscript) {
		return retry.Fatal
	}
	return classifyCommon(err)
}

// Fetch downloads the mirror page for the video and extracts the transcript
// text from it.
func (s *ScrapeSource) Fetch(ctx context.Context, videoID string) (*domain.TranscriptResult, error) {
	pageURL := fmt.Sprintf(s.mirrorURL, videoID)

	resp, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch mirror page: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{URL: pageURL}
	case resp.StatusCode != http.StatusOK:
		return nil, &HTTPStatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mirror page: %w", err)
	}

	text, err := extractMirrorTranscript(string(body))
	if err != nil {
		return nil, err
	}

	return &domain.TranscriptResult{
		VideoID:      videoID,
		SourceMethod: s.Name(),
		Text:         text,
		Segments:     []domain.Segment{{Text: text}},
		Confidence:   domain.ConfidenceUnknown,
		FetchedAt:    time.Now(),
	}, nil
}

// extractMirrorTranscript pulls transcript text out of a mirror page.
//
// Strategy, in order:
//  1. Per-utterance transcript nodes, joined in document order
//  2. A dedicated transcript container or <pre> block
//  3. Readability main-content extraction as a last resort
//
// Whatever matched must clear a minimum length, otherwise the page is
// considered an error page and ErrParse is returned.
func extractMirrorTranscript(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", ErrParse
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse mirror html: %w", ErrParse)
	}

	// Strategy 1: per-utterance nodes.
	var parts []string
	doc.Find("#transcript .transcript-segment, .transcript-line, a.transcriptUtterance").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if text := Clean(strings.Join(parts, " ")); len(text) >= minScrapedLength {
		return text, nil
	}

	// Strategy 2: a container holding the whole transcript.
	container := doc.Find("#transcript, div.transcript, pre").First()
	if text := Clean(container.Text()); len(text) >= minScrapedLength {
		return text, nil
	}

	// Strategy 3: readability over the whole page.
	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err == nil {
		if text := Clean(article.TextContent); len(text) >= minScrapedLength {
			return text, nil
		}
	}

	return "", ErrParse
}
