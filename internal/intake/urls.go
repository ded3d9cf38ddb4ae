package intake

import (
	"context"
	"net/url"
	"strings"

	"github.com/keepdeck/keep/internal/extract"
)

// ParseURLInput splits the input-phase textarea into the URL queue:
// lines are whitespace-trimmed and blank lines dropped. Duplicate lines
// are kept; each occurrence queues independently.
func ParseURLInput(text string) []string {
	lines := strings.Split(text, "\n")
	urls := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

// ProcessedURL is the outcome of one URL's metadata extraction.
type ProcessedURL struct {
	URL         string
	Title       string
	Description string
	// Error records a failed extraction; the fallback metadata is
	// still populated so processing never aborts on one URL.
	Error string
}

// ProcessURL extracts metadata for one URL, synthesizing a fallback
// title/description from the URL's host when extraction fails.
func ProcessURL(ctx context.Context, extractor extract.Extractor, rawURL string) ProcessedURL {
	meta, err := extractor.ExtractMetadata(ctx, rawURL)
	if err == nil {
		title := meta.Title
		if title == "" {
			title = fallbackTitle(rawURL)
		}
		return ProcessedURL{URL: rawURL, Title: title, Description: meta.Description}
	}

	return ProcessedURL{
		URL:         rawURL,
		Title:       fallbackTitle(rawURL),
		Description: "Saved from " + hostOf(rawURL),
		Error:       err.Error(),
	}
}

func fallbackTitle(rawURL string) string {
	return "Page on " + hostOf(rawURL)
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}
