package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/keepdeck/keep/internal/logger"
	"github.com/keepdeck/keep/internal/utils"
)

// Metadata is the best-effort title/description pulled from a page.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Extractor is the metadata-extraction collaborator. May fail; callers
// fall back gracefully.
type Extractor interface {
	ExtractMetadata(ctx context.Context, url string) (Metadata, error)
}

// HTTPExtractor fetches a page and pulls <title> and
// <meta name="description"> out of the document head.
type HTTPExtractor struct {
	http   *resty.Client
	logger logger.Logger
}

// NewHTTPExtractor creates an extractor with the given fetch timeout.
func NewHTTPExtractor(timeout time.Duration, log logger.Logger) *HTTPExtractor {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "keep-metadata-fetcher/1.0").
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &HTTPExtractor{
		http:   client,
		logger: log,
	}
}

// ExtractMetadata fetches url and parses its metadata.
func (e *HTTPExtractor) ExtractMetadata(ctx context.Context, url string) (Metadata, error) {
	resp, err := e.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	body := resp.RawBody()
	defer utils.Close(body)

	if resp.StatusCode() >= 400 {
		return Metadata{}, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode())
	}

	meta := parseMetadata(body)
	if meta.Title == "" && meta.Description == "" {
		return Metadata{}, fmt.Errorf("no extractable metadata at %s", url)
	}

	e.logger.Debug("extracted page metadata",
		logger.String("url", url),
		logger.String("title", meta.Title))

	return meta, nil
}

// parseMetadata tokenizes the document, stopping once the head is
// consumed or both fields are found.
func parseMetadata(r io.Reader) Metadata {
	var meta Metadata
	tokenizer := html.NewTokenizer(r)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return meta

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "title":
				if tokenizer.Next() == html.TextToken {
					meta.Title = strings.TrimSpace(tokenizer.Token().Data)
				}
			case "meta":
				var name, content string
				for _, attr := range token.Attr {
					switch strings.ToLower(attr.Key) {
					case "name":
						name = strings.ToLower(attr.Val)
					case "content":
						content = attr.Val
					}
				}
				if name == "description" && meta.Description == "" {
					meta.Description = strings.TrimSpace(content)
				}
			case "body":
				// Nothing useful past the head.
				return meta
			}
		}

		if meta.Title != "" && meta.Description != "" {
			return meta
		}
	}
}
