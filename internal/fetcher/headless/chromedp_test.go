package headless

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/webclipper/internal/clip"
)

func TestNewChromedpLimiterValidation(t *testing.T) {
	t.Parallel()

	_, err := NewChromedp(Config{MaxParallel: -1})
	require.Error(t, err)

	fetcher, err := NewChromedp(Config{MaxParallel: 2})
	require.NoError(t, err)
	t.Cleanup(fetcher.Close)
	require.Equal(t, 2, cap(fetcher.limiter))
	require.Equal(t, defaultNavigationTimeout, fetcher.navTimeout())
}

func TestAcquireHonorsContext(t *testing.T) {
	t.Parallel()

	fetcher := &Fetcher{limiter: make(chan struct{}, 1)}
	require.NoError(t, fetcher.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, fetcher.acquire(ctx), context.DeadlineExceeded)

	fetcher.release()
	require.NoError(t, fetcher.acquire(context.Background()))
}

func TestNetworkHeaders(t *testing.T) {
	t.Parallel()

	netHeaders := toNetworkHeaders(http.Header{
		"Cache-Control": {"no-cache"},
		"X-Multi":       {"a", "b"},
		"X-Empty":       {},
	})
	require.Equal(t, "no-cache", netHeaders["Cache-Control"])
	require.Equal(t, []string{"a", "b"}, netHeaders["X-Multi"])
	require.NotContains(t, netHeaders, "X-Empty")
}

func TestDocumentMetaKeepsFirstDocument(t *testing.T) {
	t.Parallel()

	meta := &documentMeta{}
	meta.captureEvent(&network.EventResponseReceived{
		Type: network.ResourceTypeDocument,
		Response: &network.Response{
			Status:  404,
			URL:     "https://pages.example/clips/a.html",
			Headers: network.Headers{"X-Request-ID": "abc"},
		},
	})
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeDocument,
		Response: &network.Response{Status: 200, URL: "https://frame.example"},
	})
	meta.captureEvent(&network.EventResponseReceived{
		Type:     network.ResourceTypeImage,
		Response: &network.Response{Status: 500},
	})
	status, headers, url := meta.resolve("https://req", "")
	require.Equal(t, 404, status)
	require.Equal(t, "abc", headers.Get("X-Request-ID"))
	require.Equal(t, "https://pages.example/clips/a.html", url)

	status, _, url = (&documentMeta{}).resolve("https://req", "https://final")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "https://final", url)
}

func TestNoopFetcherError(t *testing.T) {
	t.Parallel()

	_, err := NewNoop().Fetch(context.Background(), clip.FetchRequest{})
	require.ErrorIs(t, err, ErrUnavailable)
}
