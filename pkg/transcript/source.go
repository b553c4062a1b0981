package transcript

import (
	"context"
	"errors"
	"fmt"
	"net"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/retry"
)

// Source is a single transcript extraction strategy. Implementations either
// return a complete TranscriptResult for the video or fail with an error the
// fetcher can classify through Classify.
//
// The fetcher only knows sources as an ordered list of this interface, so new
// strategies can be added without touching the fetcher.
type Source interface {
	// Name identifies the extraction method, recorded on results and
	// progress records (e.g., "captions_api", "mirror_scrape").
	Name() string

	// Fetch returns the transcript for the given video id.
	Fetch(ctx context.Context, videoID string) (*domain.TranscriptResult, error)

	// Classify maps a Fetch error to retryable or fatal for this source.
	// "No transcript exists" is always fatal for the source; transient
	// network and rate-limit conditions are retryable.
	Classify(err error) retry.Class
}

var (
	// ErrNoCaptions means the platform has no caption track for the video.
	// Fatal for the captions source, non-fatal for the chain.
	ErrNoCaptions = errors.New("no captions available for video")

	// ErrParse means a mirror page was fetched but its transcript content
	// could not be extracted. Fatal for the scraping source.
	ErrParse = errors.New("could not parse transcript from page")

	// ErrEmptyTranscript means extraction produced no usable text.
	ErrEmptyTranscript = errors.New("extracted transcript is empty")
)

// RateLimitError reports an upstream 429. Always retryable.
type RateLimitError struct {
	URL string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.URL)
}

// HTTPStatusError reports an unexpected, non-retryable HTTP status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// classifyCommon handles the error kinds shared by all network-backed
// sources: rate limits and transport failures retry, 5xx retries, anything
// else is fatal for the source.
func classifyCommon(err error) retry.Class {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return retry.Retryable
	}

	var hs *HTTPStatusError
	if errors.As(err, &hs) {
		if hs.StatusCode >= 500 {
			return retry.Retryable
		}
		return retry.Fatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retry.Retryable
	}

	// Errors from the http client that are not typed (connection resets,
	// DNS failures) arrive wrapped around *url.Error which implements
	// net.Error, so anything left here is a local, permanent failure.
	return retry.Fatal
}
