package ports

import (
	"context"
	"io"
	"net/http"

	"streamgate/internal/core/domain"
)

// FetchResult is a fully-buffered upstream response.
type FetchResult struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher issues upstream HTTP requests with redirect following and a
// fixed overall timeout per attempt.
type Fetcher interface {
	// Fetch buffers the whole response body.
	Fetch(ctx context.Context, method, rawURL string, header http.Header, body io.Reader) (*FetchResult, error)
	// Open returns the raw response for pass-through streaming. The caller
	// owns resp.Body.
	Open(ctx context.Context, rawURL string, header http.Header) (*http.Response, error)
}

// TokenNegotiator obtains a playback access token for a channel, walking
// client profiles in priority order until one succeeds.
type TokenNegotiator interface {
	Negotiate(ctx context.Context, channel domain.ChannelID) (*domain.PlaybackToken, domain.ClientProfile, error)
}

// PlaylistService fetches the master playlist for a channel and decomposes
// it into quality variants.
type PlaylistService interface {
	FetchMaster(ctx context.Context, channel domain.ChannelID, token *domain.PlaybackToken) (string, []domain.QualityVariant, error)
}

// MetadataService fetches display metadata for a channel. Callers treat
// failures as non-fatal.
type MetadataService interface {
	Fetch(ctx context.Context, channel domain.ChannelID) (*domain.StreamMetadata, error)
}

// AllowList authorizes proxy fetch targets by hostname.
type AllowList interface {
	IsAllowed(rawURL string) bool
}

// ChannelService orchestrates token negotiation, playlist fetch and
// metadata lookup into a single channel-info response.
type ChannelService interface {
	ChannelInfo(ctx context.Context, channel domain.ChannelID) (*domain.ChannelInfo, error)
}
