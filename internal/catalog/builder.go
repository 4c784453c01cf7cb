package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"go.uber.org/zap"
)

// Catalog is the deduplicated, lexically sorted set of all items discovered
// in one run. It is rebuilt fresh every run and never persisted; the
// deterministic order keeps the diff against the progress record
// reproducible across runs.
type Catalog struct {
	Items []Item
	// FailedDirs counts directories whose listing fetch failed. A partial
	// catalog is acceptable; the operator re-runs to pick up directories
	// that failed transiently.
	FailedDirs int
}

// Builder unions the listings of the configured series directories.
type Builder struct {
	lister      Lister
	baseURL     string
	contentRoot string
	logger      *zap.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(lister Lister, baseURL, contentRoot string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		lister:      lister,
		baseURL:     baseURL,
		contentRoot: contentRoot,
		logger:      logger,
	}
}

// Build scans the given series directories sequentially and returns the
// deduplicated, sorted union of discovered items. One failing directory
// never aborts the others: it is logged, counted, and contributes nothing.
func (b *Builder) Build(ctx context.Context, seriesDirs []string) (Catalog, error) {
	base, err := url.Parse(b.baseURL)
	if err != nil {
		return Catalog{}, fmt.Errorf("parse base url %q: %w", b.baseURL, err)
	}

	cat := Catalog{}
	seen := make(map[string]struct{})
	for _, dir := range seriesDirs {
		if err := ctx.Err(); err != nil {
			return Catalog{}, fmt.Errorf("catalog build canceled: %w", err)
		}
		dirURL, err := joinURL(base, dir)
		if err != nil {
			b.logger.Warn("skipping unresolvable series directory",
				zap.String("dir", dir), zap.Error(err))
			cat.FailedDirs++
			continue
		}

		itemURLs, err := b.lister.List(ctx, dirURL)
		if err != nil {
			if ctx.Err() != nil {
				return Catalog{}, fmt.Errorf("catalog build canceled: %w", ctx.Err())
			}
			b.logger.Warn("series directory listing failed",
				zap.String("url", dirURL), zap.Error(err))
			cat.FailedDirs++
			continue
		}
		b.logger.Debug("series directory scanned",
			zap.String("url", dirURL), zap.Int("links", len(itemURLs)))

		for _, itemURL := range itemURLs {
			if _, ok := seen[itemURL]; ok {
				continue
			}
			seen[itemURL] = struct{}{}
			item, err := NewItem(itemURL, b.contentRoot)
			if err != nil {
				b.logger.Warn("skipping malformed item link", zap.Error(err))
				continue
			}
			cat.Items = append(cat.Items, item)
		}
	}

	sort.Slice(cat.Items, func(i, j int) bool {
		return cat.Items[i].URL < cat.Items[j].URL
	})
	return cat, nil
}

func joinURL(base *url.URL, dir string) (string, error) {
	ref, err := url.Parse(dir)
	if err != nil {
		return "", fmt.Errorf("parse series dir %q: %w", dir, err)
	}
	return base.ResolveReference(ref).String(), nil
}
