// Package video finds a recycling video for a waste label through Google
// Custom Search. Lookups are best effort: failures degrade to NotFound.
package video

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"github.com/Brownie44l1/sampah-api/internal/config"
)

const (
	NotFound        = "Tidak ditemukan"
	siteRestriction = " site:youtube.com"
)

// Finder returns a video link for a query, or NotFound.
type Finder interface {
	Find(ctx context.Context, query string) string
}

type Logger interface {
	Warning(format string, v ...interface{})
}

// LookupError wraps anything that went wrong during a search.
type LookupError struct {
	Query string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("video lookup %q: %v", e.Query, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Query builds the search text for a waste label.
func Query(label string) string {
	return "cara daur ulang sampah " + label
}

type SearchClient struct {
	APIKey  string
	CX      string
	Timeout time.Duration
	logger  Logger
	opts    []option.ClientOption
}

// NewSearchClient creates a client. Extra options (for example option.WithEndpoint)
// are appended after the API key.
func NewSearchClient(apiKey, cx string, timeout time.Duration, logger Logger, opts ...option.ClientOption) *SearchClient {
	return &SearchClient{
		APIKey:  strings.TrimSpace(apiKey),
		CX:      strings.TrimSpace(cx),
		Timeout: timeout,
		logger:  logger,
		opts:    opts,
	}
}

// Find never fails: any error is logged and NotFound is returned.
func (s *SearchClient) Find(ctx context.Context, query string) string {
	link, err := s.Search(ctx, query)
	if err != nil {
		if s.logger != nil {
			s.logger.Warning("Failed to find video: %v", err)
		}
		return NotFound
	}
	if link == "" {
		return NotFound
	}
	return link
}

// Search returns the first result link, "" when there are no results.
func (s *SearchClient) Search(ctx context.Context, query string) (string, error) {
	q := query + siteRestriction

	if err := config.Require("GOOGLE_API_KEY", s.APIKey); err != nil {
		return "", &LookupError{Query: q, Err: err}
	}
	if err := config.Require("GOOGLE_CSE_ID", s.CX); err != nil {
		return "", &LookupError{Query: q, Err: err}
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	opts := append([]option.ClientOption{option.WithAPIKey(s.APIKey)}, s.opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return "", &LookupError{Query: q, Err: err}
	}

	res, err := svc.Cse.List().Cx(s.CX).Q(q).Num(1).Context(ctx).Do()
	if err != nil {
		return "", &LookupError{Query: q, Err: err}
	}
	if len(res.Items) == 0 || res.Items[0] == nil {
		return "", nil
	}
	return res.Items[0].Link, nil
}
