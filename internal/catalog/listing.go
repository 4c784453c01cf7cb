package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// archiveSuffix is the fixed filename pattern for artifacts: a link target
// counts as an item iff, resolved against the directory URL, it ends in this
// suffix.
const archiveSuffix = ".zip"

// Lister enumerates the artifact URLs published under one directory.
type Lister interface {
	List(ctx context.Context, directoryURL string) ([]string, error)
}

// ListingFetcher implements Lister using the Colly collector: it fetches a
// directory listing page and extracts matching hyperlink targets. It never
// recurses into subdirectories.
type ListingFetcher struct {
	base      *colly.Collector
	userAgent string
	timeout   time.Duration
}

// NewListingFetcher builds a ListingFetcher.
func NewListingFetcher(userAgent string, timeout time.Duration) *ListingFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; omit it to keep the collector synchronous (the default).
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	return &ListingFetcher{
		base:      c,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// List fetches one directory listing and returns the absolute URLs of every
// matching artifact link. A transport failure (non-2xx, connection error,
// timeout) fails this one directory only; the caller decides whether to
// continue with a partial catalog.
func (f *ListingFetcher) List(ctx context.Context, directoryURL string) ([]string, error) {
	collector := f.base.Clone()
	if f.userAgent != "" {
		collector.UserAgent = f.userAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.timeout)

	var (
		urls     []string
		fetchErr error
	)
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := e.Request.AbsoluteURL(e.Attr("href"))
		if strings.HasSuffix(href, archiveSuffix) {
			urls = append(urls, href)
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(directoryURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list %s canceled: %w", directoryURL, ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", directoryURL, err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("list %s: %w", directoryURL, fetchErr)
		}
		return urls, nil
	}
}
