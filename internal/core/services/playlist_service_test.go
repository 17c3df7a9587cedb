package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"streamgate/internal/core/domain"
	"streamgate/internal/core/ports"

	"go.uber.org/zap/zaptest"
)

type recordingFetcher struct {
	result *ports.FetchResult
	err    error
	gotURL string
}

func (f *recordingFetcher) Fetch(ctx context.Context, method, rawURL string, header http.Header, body io.Reader) (*ports.FetchResult, error) {
	f.gotURL = rawURL
	return f.result, f.err
}

func (f *recordingFetcher) Open(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	panic("not used")
}

const usherMaster = "#EXTM3U\n" +
	"#EXT-X-MEDIA:TYPE=VIDEO,GROUP-ID=\"chunked\",NAME=\"1080p60 (source)\",AUTOSELECT=YES,DEFAULT=YES\n" +
	"#EXT-X-STREAM-INF:BANDWIDTH=6000000,RESOLUTION=1920x1080,FRAME-RATE=60.000,VIDEO=\"chunked\"\n" +
	"https://edge.ttvnw.net/v1/playlist/chunked.m3u8\n"

func TestPlaylistService_FetchMaster(t *testing.T) {
	fetcher := &recordingFetcher{result: &ports.FetchResult{Status: http.StatusOK, Body: []byte(usherMaster)}}
	svc := NewPlaylistService(fetcher, "https://usher.ttvnw.net", zaptest.NewLogger(t).Sugar())

	token := &domain.PlaybackToken{Value: `{"channel":"teststreamer"}`, Signature: "sig123", Authorized: true}
	playlist, variants, err := svc.FetchMaster(context.Background(), "teststreamer", token)
	if err != nil {
		t.Fatalf("FetchMaster() error = %v", err)
	}
	if playlist != usherMaster {
		t.Error("playlist must be returned verbatim")
	}
	if len(variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(variants))
	}
	if variants[0].Label != "1080p60 (source)" {
		t.Errorf("label = %q", variants[0].Label)
	}

	requested, err := url.Parse(fetcher.gotURL)
	if err != nil {
		t.Fatalf("request url unparseable: %v", err)
	}
	if !strings.HasSuffix(requested.Path, "/api/channel/hls/teststreamer.m3u8") {
		t.Errorf("request path = %q", requested.Path)
	}
	q := requested.Query()
	if q.Get("sig") != "sig123" {
		t.Errorf("sig = %q", q.Get("sig"))
	}
	if q.Get("token") != token.Value {
		t.Errorf("token = %q", q.Get("token"))
	}
	for _, flag := range []string{"allow_source", "allow_audio_only", "fast_bread", "playlist_include_framerate", "reassignments_supported"} {
		if q.Get(flag) != "true" {
			t.Errorf("%s = %q, want true", flag, q.Get(flag))
		}
	}
	if q.Get("player") != "twitchweb" {
		t.Errorf("player = %q", q.Get("player"))
	}
	if q.Get("p") == "" {
		t.Error("cache buster must be set")
	}
}

func TestPlaylistService_UsherErrorStatus(t *testing.T) {
	fetcher := &recordingFetcher{result: &ports.FetchResult{Status: http.StatusNotFound, Body: []byte("not found")}}
	svc := NewPlaylistService(fetcher, "https://usher.ttvnw.net", zaptest.NewLogger(t).Sugar())

	_, _, err := svc.FetchMaster(context.Background(), "ghostchannel", &domain.PlaybackToken{})
	if !errors.Is(err, domain.ErrPlaylistUnavailable) {
		t.Errorf("error = %v, want ErrPlaylistUnavailable", err)
	}
}

func TestPlaylistService_TransportErrorSurfaces(t *testing.T) {
	fetcher := &recordingFetcher{err: domain.ErrUpstreamTimeout}
	svc := NewPlaylistService(fetcher, "https://usher.ttvnw.net", zaptest.NewLogger(t).Sugar())

	_, _, err := svc.FetchMaster(context.Background(), "teststreamer", &domain.PlaybackToken{})
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Errorf("error = %v, want ErrUpstreamTimeout", err)
	}
}
