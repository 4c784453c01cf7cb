package catalog

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLister serves canned listings keyed by directory URL.
type fakeLister struct {
	listings map[string][]string
	errs     map[string]error
	calls    []string
}

func (f *fakeLister) List(_ context.Context, dirURL string) ([]string, error) {
	f.calls = append(f.calls, dirURL)
	if err, ok := f.errs[dirURL]; ok {
		return nil, err
	}
	return f.listings[dirURL], nil
}

func TestBuildUnionsAndSortsListings(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{listings: map[string][]string{
		"https://host/specs/a/": {
			"https://host/specs/a/y.zip",
			"https://host/specs/a/x.zip",
		},
		"https://host/specs/b/": {
			"https://host/specs/b/z.zip",
			"https://host/specs/b/y.zip",
		},
	}}
	b := NewBuilder(lister, "https://host/specs/", "root", zap.NewNop())

	cat, err := b.Build(context.Background(), []string{"a/", "b/"})
	require.NoError(t, err)
	require.Zero(t, cat.FailedDirs)

	// Identical filenames under different series are distinct items.
	require.Len(t, cat.Items, 4)
	require.True(t, sort.SliceIsSorted(cat.Items, func(i, j int) bool {
		return cat.Items[i].URL < cat.Items[j].URL
	}))
	require.Equal(t, "https://host/specs/a/x.zip", cat.Items[0].URL)
	require.Equal(t, "y.zip", cat.Items[1].Filename)
	require.Equal(t, "a", cat.Items[1].Series)
	require.Equal(t, "y.zip", cat.Items[2].Filename)
	require.Equal(t, "b", cat.Items[2].Series)
	require.NotEqual(t, cat.Items[1].LocalPath, cat.Items[2].LocalPath)
}

func TestBuildDeduplicatesAcrossDirectories(t *testing.T) {
	t.Parallel()

	shared := "https://host/specs/a/x.zip"
	lister := &fakeLister{listings: map[string][]string{
		"https://host/specs/a/": {shared, shared},
		"https://host/specs/b/": {shared},
	}}
	b := NewBuilder(lister, "https://host/specs/", "root", zap.NewNop())

	cat, err := b.Build(context.Background(), []string{"a/", "b/"})
	require.NoError(t, err)
	require.Len(t, cat.Items, 1)
	require.Equal(t, shared, cat.Items[0].URL)
}

func TestBuildToleratesFailingDirectories(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{
		listings: map[string][]string{
			"https://host/specs/a/": {"https://host/specs/a/x.zip"},
			"https://host/specs/c/": {"https://host/specs/c/z.zip"},
		},
		errs: map[string]error{
			"https://host/specs/b/": errors.New("listing fetch failed"),
		},
	}
	b := NewBuilder(lister, "https://host/specs/", "root", zap.NewNop())

	cat, err := b.Build(context.Background(), []string{"a/", "b/", "c/"})
	require.NoError(t, err)
	require.Equal(t, 1, cat.FailedDirs)
	require.Len(t, cat.Items, 2)
	// The failure must not stop later directories from being scanned.
	require.Len(t, lister.calls, 3)
}

func TestBuildStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(&fakeLister{}, "https://host/specs/", "root", zap.NewNop())
	_, err := b.Build(ctx, []string{"a/"})
	require.ErrorIs(t, err, context.Canceled)
}
