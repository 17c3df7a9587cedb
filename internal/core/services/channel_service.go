package services

import (
	"context"
	"net/url"

	"streamgate/internal/core/domain"
	"streamgate/internal/core/ports"

	"go.uber.org/zap"
)

// ChannelService orchestrates token negotiation, playlist fetch and
// metadata lookup into one channel-info response. Every variant URL it
// hands out points back at the proxy fetch endpoint; the allow list is
// re-evaluated there, never trusted from this stage.
type ChannelService struct {
	tokens    ports.TokenNegotiator
	playlists ports.PlaylistService
	metadata  ports.MetadataService
	proxyPath string
	logger    *zap.SugaredLogger
}

func NewChannelService(
	tokens ports.TokenNegotiator,
	playlists ports.PlaylistService,
	metadata ports.MetadataService,
	proxyPath string,
	logger *zap.SugaredLogger,
) *ChannelService {
	return &ChannelService{
		tokens:    tokens,
		playlists: playlists,
		metadata:  metadata,
		proxyPath: proxyPath,
		logger:    logger,
	}
}

func (s *ChannelService) ChannelInfo(ctx context.Context, channel domain.ChannelID) (*domain.ChannelInfo, error) {
	if channel == "" {
		return nil, domain.ErrChannelRequired
	}

	token, profile, err := s.tokens.Negotiate(ctx, channel)
	if err != nil {
		return nil, err
	}

	playlist, variants, err := s.playlists.FetchMaster(ctx, channel, token)
	if err != nil {
		return nil, err
	}

	for i := range variants {
		variants[i].URL = s.proxiedURL(variants[i].SourceURL)
	}

	info := &domain.ChannelInfo{
		Channel:   string(channel),
		Qualities: variants,
		Playlist:  playlist,
	}

	// Metadata is best-effort; a failure never fails the request.
	meta, err := s.metadata.Fetch(ctx, channel)
	if err != nil {
		s.logger.Warnw("metadata fetch failed",
			"channel", channel,
			"error", err,
		)
	} else {
		info.Metadata = meta
	}

	s.logger.Infow("channel info assembled",
		"channel", channel,
		"profile", profile,
		"qualities", len(variants),
	)
	return info, nil
}

func (s *ChannelService) proxiedURL(sourceURL string) string {
	return s.proxyPath + "?url=" + url.QueryEscape(sourceURL)
}
