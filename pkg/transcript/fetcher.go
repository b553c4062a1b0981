package transcript

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/retry"
)

// AttemptOutcome describes how one retry iteration against a source ended.
type AttemptOutcome string

const (
	AttemptSuccess        AttemptOutcome = "success"
	AttemptRetryableError AttemptOutcome = "retryable_error"
	AttemptFatalError     AttemptOutcome = "fatal_error"
)

// FetchAttempt records one invocation of a source during a fetch chain.
// Diagnostic only; attempts are discarded once the fetch resolves.
type FetchAttempt struct {
	SourceMethod  string
	AttemptNumber int
	Outcome       AttemptOutcome
	ErrorDetail   string
}

// UnavailableError is the terminal failure of a fetch chain: every configured
// source exhausted its own retries. It aggregates the last error per source.
type UnavailableError struct {
	VideoID  string
	Failures map[string]error
	Attempts []FetchAttempt
}

func (e *UnavailableError) Error() string {
	methods := make([]string, 0, len(e.Failures))
	for method := range e.Failures {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	reasons := make([]string, 0, len(methods))
	for _, method := range methods {
		reasons = append(reasons, fmt.Sprintf("%s: %v", method, e.Failures[method]))
	}
	return fmt.Sprintf("transcript unavailable for %s (%s)", e.VideoID, strings.Join(reasons, "; "))
}

// IsUnavailable reports whether err is a terminal fetch-chain failure.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// ProgressFunc receives stage/status transitions as the fetcher works through
// its sources. May be nil.
type ProgressFunc func(videoID string, stage domain.Stage, status domain.Status, reason string)

// Fetcher resolves a video id to a transcript through an ordered chain of
// sources. Each source runs under the retry policy; the first success wins
// and later sources are never tried. Ordering encodes a cost/accuracy
// preference: cheap, high-fidelity strategies first.
type Fetcher struct {
	sources  []Source
	policy   retry.Policy
	progress ProgressFunc
}

// NewFetcher creates a fetcher over the given source chain.
func NewFetcher(sources []Source, policy retry.Policy) *Fetcher {
	return &Fetcher{sources: sources, policy: policy}
}

// SetProgress installs an observer for per-source progress transitions.
func (f *Fetcher) SetProgress(fn ProgressFunc) {
	f.progress = fn
}

// FetchWithFallback tries each source in priority order until one returns a
// transcript. If every source fails, it returns *UnavailableError carrying
// the per-source failure reasons and the full attempt log.
func (f *Fetcher) FetchWithFallback(ctx context.Context, videoID string) (*domain.TranscriptResult, error) {
	if len(f.sources) == 0 {
		return nil, fmt.Errorf("no transcript sources configured")
	}

	failures := make(map[string]error, len(f.sources))
	var attempts []FetchAttempt

	for _, source := range f.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f.emit(videoID, domain.StageFetch, domain.StatusRunning, source.Name())

		result, sourceAttempts, err := f.fetchFromSource(ctx, source, videoID)
		attempts = append(attempts, sourceAttempts...)

		if err == nil {
			f.emit(videoID, domain.StageFetch, domain.StatusSuccess, source.Name())
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		log.Printf("Fetcher: source %s failed for %s: %v", source.Name(), videoID, err)
		f.emit(videoID, domain.StageFetch, domain.StatusFailed, fmt.Sprintf("%s: %v", source.Name(), err))
		failures[source.Name()] = err
	}

	return nil, &UnavailableError{VideoID: videoID, Failures: failures, Attempts: attempts}
}

// fetchFromSource runs one source under the retry policy, recording every
// attempt for diagnostics.
func (f *Fetcher) fetchFromSource(ctx context.Context, source Source, videoID string) (*domain.TranscriptResult, []FetchAttempt, error) {
	var (
		result   *domain.TranscriptResult
		attempts []FetchAttempt
		attemptN int
	)

	op := func(ctx context.Context) error {
		attemptN++
		res, err := source.Fetch(ctx, videoID)

		attempt := FetchAttempt{
			SourceMethod:  source.Name(),
			AttemptNumber: attemptN,
		}
		switch {
		case err == nil:
			attempt.Outcome = AttemptSuccess
		case source.Classify(err) == retry.Fatal:
			attempt.Outcome = AttemptFatalError
			attempt.ErrorDetail = err.Error()
		default:
			attempt.Outcome = AttemptRetryableError
			attempt.ErrorDetail = err.Error()
		}
		attempts = append(attempts, attempt)

		if err != nil {
			return err
		}
		result = res
		return nil
	}

	err := f.policy.Do(ctx, op, source.Classify)
	if err != nil {
		return nil, attempts, err
	}
	return result, attempts, nil
}

func (f *Fetcher) emit(videoID string, stage domain.Stage, status domain.Status, reason string) {
	if f.progress != nil {
		f.progress(videoID, stage, status, reason)
	}
}
