package transcript

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"podcast-summary/pkg/domain"
	"podcast-summary/pkg/httpclient"
	"podcast-summary/pkg/retry"
)

// defaultDocumentPageURL is the subtitle-download mirror whose episode pages
// link transcript documents. %s is the video id.
const defaultDocumentPageURL = "https://downsub.com/?url=https%%3A%%2F%%2Fwww.youtube.com%%2Fwatch%%3Fv%%3D%s"

// DocumentSource finds a transcript document (.pdf, .txt, .srt) linked from a
// mirror's episode page, downloads it, and extracts its text. The slowest
// strategy in the chain; last resort.
type DocumentSource struct {
	client  *httpclient.HTTPClient
	pageURL string
}

// NewDocumentSource creates a document source against the default mirror.
func NewDocumentSource() *DocumentSource {
	return &DocumentSource{
		client:  httpclient.NewClient(httpclient.BrowserClient),
		pageURL: defaultDocumentPageURL,
	}
}

// NewDocumentSourceWithPage creates a document source against a custom
// episode page URL pattern (%s is replaced by the video id). Used by tests.
func NewDocumentSourceWithPage(pattern string) *DocumentSource {
	s := NewDocumentSource()
	s.pageURL = pattern
	return s
}

// Name implements Source.
func (s *DocumentSource) Name() string { return "transcript_document" }

// Classify implements Source.
func (s *DocumentSource) Classify(err error) retry.Class {
	if errors.Is(err, ErrParse) || errors.Is(err, ErrEmptyTranscript) || errors.Is(err, ErrNoCaptions) {
		return retry.Fatal
	}
	return classifyCommon(err)
}

// Fetch loads the episode page, locates the best transcript document link,
// downloads the document, and extracts plain text from it.
func (s *DocumentSource) Fetch(ctx context.Context, videoID string) (*domain.TranscriptResult, error) {
	pageURL := fmt.Sprintf(s.pageURL, videoID)

	html, err := s.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	docURL, err := FindTranscriptDocURL(string(html))
	if err != nil {
		return nil, err
	}

	resolved, err := resolveAgainst(pageURL, docURL)
	if err != nil {
		return nil, fmt.Errorf("resolve document url: %w", ErrParse)
	}

	raw, err := s.get(ctx, resolved)
	if err != nil {
		return nil, err
	}

	text, err := extractDocumentText(resolved, raw)
	if err != nil {
		return nil, err
	}

	text = Clean(text)
	if text == "" {
		return nil, ErrEmptyTranscript
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

func (s *DocumentSource) get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{URL: rawURL}
	case resp.StatusCode != http.StatusOK:
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}

// FindTranscriptDocURL locates the most plausible transcript document link in
// episode page HTML. Candidates are ranked:
//  1. Anchor text mentions "transcript" or an English subtitle AND the href
//     looks like a document (.pdf/.txt/.srt)
//  2. href looks like a document
//  3. Anchor text mentions "transcript"
func FindTranscriptDocURL(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", ErrParse
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse episode page: %w", ErrParse)
	}

	type candidate struct {
		href string
	}

	var high, medium, low []candidate

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		docLike := hasTranscriptDocExtension(href)
		mentions := strings.Contains(text, "transcript") ||
			strings.Contains(text, "english") || strings.Contains(text, "[en]")

		c := candidate{href: href}
		switch {
		case docLike && mentions:
			high = append(high, c)
		case docLike:
			medium = append(medium, c)
		case mentions:
			low = append(low, c)
		}
	})

	for _, group := range [][]candidate{high, medium, low} {
		if len(group) > 0 {
			return group[0].href, nil
		}
	}

	return "", ErrNoCaptions
}

func hasTranscriptDocExtension(href string) bool {
	p := href
	if parsed, err := url.Parse(href); err == nil {
		p = parsed.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".pdf", ".txt", ".srt":
		return true
	default:
		return false
	}
}

// resolveAgainst resolves a possibly relative href against the page it was
// found on.
func resolveAgainst(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// extractDocumentText converts a downloaded transcript document into plain
// text based on its extension.
func extractDocumentText(docURL string, raw []byte) (string, error) {
	p := docURL
	if parsed, err := url.Parse(docURL); err == nil {
		p = parsed.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return extractPDFText(raw)
	case ".srt":
		return stripSRT(string(raw)), nil
	default:
		return string(raw), nil
	}
}

func extractPDFText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmptyTranscript
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", ErrParse)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

var srtTimestamp = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}[,.]\d{3} --> \d{2}:\d{2}:\d{2}[,.]\d{3}`)

// stripSRT removes sequence numbers and timestamp lines from SRT subtitle
// content, leaving only the spoken text.
func stripSRT(srt string) string {
	var parts []string
	for _, line := range strings.Split(srt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || srtTimestamp.MatchString(line) {
			continue
		}
		if isAllDigits(line) {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
