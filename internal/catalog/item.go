// Package catalog discovers remote artifacts from directory listings and
// models them as Items.
package catalog

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Item is one remote artifact eligible for download. The source URL is the
// unique discovery key; LocalPath is the durable identity recorded by the
// progress ledger. Identical filenames under different series are distinct
// items, so uniqueness is (series, filename), never filename alone.
type Item struct {
	URL       string
	Series    string
	Filename  string
	LocalPath string
}

// NewItem derives an Item from its source URL: the series is the parent path
// segment, the filename the final one, and the destination is
// contentRoot/<series>/<filename>. LocalPath is computed once here and
// carried through the queue rather than recomputed per worker.
func NewItem(rawURL, contentRoot string) (Item, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Item{}, fmt.Errorf("parse item url %q: %w", rawURL, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[len(segments)-1] == "" {
		return Item{}, fmt.Errorf("item url %q lacks a series/filename path", rawURL)
	}
	series := segments[len(segments)-2]
	filename := segments[len(segments)-1]
	return Item{
		URL:       rawURL,
		Series:    series,
		Filename:  filename,
		LocalPath: filepath.Join(contentRoot, series, filename),
	}, nil
}
