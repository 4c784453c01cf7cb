package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body>
<a href="21101-i00.zip">21101-i00.zip</a>
<a href="21111-i10.zip">21111-i10.zip</a>
<a href="readme.txt">readme.txt</a>
<a href="../other_series/">parent dir</a>
<a href="/absolute/21_series/21905-i20.zip">absolute</a>
</body></html>`

func TestListExtractsMatchingLinks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	fetcher := NewListingFetcher("specsync-test", 5*time.Second)
	urls, err := fetcher.List(context.Background(), srv.URL+"/21_series/")
	require.NoError(t, err)

	require.Equal(t, []string{
		srv.URL + "/21_series/21101-i00.zip",
		srv.URL + "/21_series/21111-i10.zip",
		srv.URL + "/absolute/21_series/21905-i20.zip",
	}, urls)
}

func TestListFailsOnBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := NewListingFetcher("specsync-test", 5*time.Second)
	_, err := fetcher.List(context.Background(), srv.URL+"/21_series/")
	require.Error(t, err)
}

func TestListFailsOnConnectionError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	fetcher := NewListingFetcher("specsync-test", time.Second)
	_, err := fetcher.List(context.Background(), srv.URL+"/21_series/")
	require.Error(t, err)
}

func TestListSendsConfiguredUserAgent(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`<html><a href="x.zip">x</a></html>`))
	}))
	defer srv.Close()

	fetcher := NewListingFetcher("specsync-agent/1.0", 5*time.Second)
	_, err := fetcher.List(context.Background(), srv.URL+"/a/")
	require.NoError(t, err)
	require.Equal(t, "specsync-agent/1.0", <-gotUA)
}
