package services

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"streamgate/internal/core/domain"
	"streamgate/internal/core/ports"
	"streamgate/internal/infrastructure/streaming"

	"go.uber.org/zap"
)

// PlaylistService fetches the master playlist for a channel from the
// usher endpoint and decomposes it into quality variants.
type PlaylistService struct {
	fetcher  ports.Fetcher
	usherURL string
	logger   *zap.SugaredLogger
}

func NewPlaylistService(fetcher ports.Fetcher, usherURL string, logger *zap.SugaredLogger) *PlaylistService {
	return &PlaylistService{
		fetcher:  fetcher,
		usherURL: usherURL,
		logger:   logger,
	}
}

func (s *PlaylistService) FetchMaster(ctx context.Context, channel domain.ChannelID, token *domain.PlaybackToken) (string, []domain.QualityVariant, error) {
	target := s.masterURL(channel, token)

	res, err := s.fetcher.Fetch(ctx, http.MethodGet, target, nil, nil)
	if err != nil {
		return "", nil, err
	}
	if res.Status != http.StatusOK {
		return "", nil, fmt.Errorf("%w: usher returned status %d", domain.ErrPlaylistUnavailable, res.Status)
	}

	playlist := string(res.Body)
	variants := streaming.ParseMaster(playlist)

	s.logger.Debugw("master playlist fetched",
		"channel", channel,
		"variants", len(variants),
	)
	return playlist, variants, nil
}

func (s *PlaylistService) masterURL(channel domain.ChannelID, token *domain.PlaybackToken) string {
	params := url.Values{}
	params.Set("allow_source", "true")
	params.Set("allow_audio_only", "true")
	params.Set("fast_bread", "true")
	params.Set("playlist_include_framerate", "true")
	params.Set("reassignments_supported", "true")
	params.Set("player", "twitchweb")
	// Cache buster, same range the web player uses.
	params.Set("p", fmt.Sprintf("%d", rand.Intn(9000000)+1000000))
	params.Set("sig", token.Signature)
	params.Set("token", token.Value)

	return fmt.Sprintf("%s/api/channel/hls/%s.m3u8?%s", s.usherURL, channel, params.Encode())
}
