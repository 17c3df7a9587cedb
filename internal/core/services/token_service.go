package services

import (
	"context"
	"encoding/json"
	"fmt"

	"streamgate/internal/core/domain"

	"go.uber.org/zap"
)

const playbackAccessTokenOperation = "PlaybackAccessToken"

// Persisted-query hash for the playback access token operation. When the
// upstream no longer recognizes it, the negotiator falls back to the full
// query text below.
const playbackAccessTokenHash = "0828119ded1c13477966434e15800ff57ddacf13ba1911c129dc2200705b0712"

const playbackAccessTokenQuery = `query PlaybackAccessToken_Template($login: String!, $isLive: Boolean!, $vodID: ID!, $isVod: Boolean!, $playerType: String!) {  streamPlaybackAccessToken(channelName: $login, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) @include(if: $isLive) {    value    signature    authorization { isForbidden forbiddenReasonCode }    __typename  }  videoPlaybackAccessToken(id: $vodID, params: {platform: "web", playerBackend: "mediaplayer", playerType: $playerType}) @include(if: $isVod) {    value    signature    __typename  }}`

// GraphQLClient posts a GraphQL payload and returns the raw response body.
type GraphQLClient interface {
	Query(ctx context.Context, payload interface{}) ([]byte, error)
}

// TokenMetrics records per-profile negotiation outcomes.
type TokenMetrics interface {
	TokenAttempt(profile, outcome string)
}

type nopTokenMetrics struct{}

func (nopTokenMetrics) TokenAttempt(profile, outcome string) {}

type tokenVariables struct {
	IsLive     bool   `json:"isLive"`
	IsVod      bool   `json:"isVod"`
	Login      string `json:"login"`
	PlayerType string `json:"playerType"`
	VodID      string `json:"vodID"`
}

type persistedQueryExtension struct {
	PersistedQuery struct {
		Version    int    `json:"version"`
		Sha256Hash string `json:"sha256Hash"`
	} `json:"persistedQuery"`
}

type tokenRequest struct {
	OperationName string                   `json:"operationName"`
	Query         string                   `json:"query,omitempty"`
	Extensions    *persistedQueryExtension `json:"extensions,omitempty"`
	Variables     tokenVariables           `json:"variables"`
}

type tokenResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Data struct {
		StreamPlaybackAccessToken *struct {
			Value         string `json:"value"`
			Signature     string `json:"signature"`
			Authorization struct {
				IsForbidden         bool   `json:"isForbidden"`
				ForbiddenReasonCode string `json:"forbiddenReasonCode"`
			} `json:"authorization"`
		} `json:"streamPlaybackAccessToken"`
	} `json:"data"`
}

// TokenService negotiates playback access tokens by walking client
// profiles in priority order. The upstream returns an empty token both for
// offline streams and for denied authorization, so negotiation failure is
// reported as a single "not found or offline" outcome.
type TokenService struct {
	gql      GraphQLClient
	profiles []domain.ClientProfile
	metrics  TokenMetrics
	logger   *zap.SugaredLogger
}

func NewTokenService(gql GraphQLClient, metrics TokenMetrics, logger *zap.SugaredLogger) *TokenService {
	if metrics == nil {
		metrics = nopTokenMetrics{}
	}
	return &TokenService{
		gql:      gql,
		profiles: domain.ProfileFallbackOrder,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *TokenService) Negotiate(ctx context.Context, channel domain.ChannelID) (*domain.PlaybackToken, domain.ClientProfile, error) {
	// The aggregate error carries whichever failure the last profile
	// produced, be it a transport error or an upstream diagnostic.
	var lastDiag string
	var lastErr error

	for _, profile := range s.profiles {
		token, diag, err := s.attempt(ctx, channel, profile)
		if err != nil {
			// A transport failure on one profile does not end negotiation.
			s.metrics.TokenAttempt(string(profile), "error")
			s.logger.Warnw("token attempt failed",
				"channel", channel,
				"profile", profile,
				"error", err,
			)
			lastErr, lastDiag = err, ""
			continue
		}
		if token != nil {
			s.metrics.TokenAttempt(string(profile), "ok")
			s.logger.Infow("playback token obtained",
				"channel", channel,
				"profile", profile,
				"authorized", token.Authorized,
			)
			return token, profile, nil
		}
		s.metrics.TokenAttempt(string(profile), "denied")
		lastErr, lastDiag = nil, diag
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrTokenUnavailable, lastErr)
	}
	if lastDiag != "" {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrTokenUnavailable, lastDiag)
	}
	return nil, "", domain.ErrTokenUnavailable
}

// attempt runs one profile: persisted query first, full query once if the
// hash is unknown upstream. A nil token with nil error means this profile
// yielded nothing playable.
func (s *TokenService) attempt(ctx context.Context, channel domain.ChannelID, profile domain.ClientProfile) (*domain.PlaybackToken, string, error) {
	vars := tokenVariables{
		IsLive:     true,
		IsVod:      false,
		Login:      string(channel),
		PlayerType: string(profile),
		VodID:      "",
	}

	persisted := tokenRequest{
		OperationName: playbackAccessTokenOperation,
		Extensions:    &persistedQueryExtension{},
		Variables:     vars,
	}
	persisted.Extensions.PersistedQuery.Version = 1
	persisted.Extensions.PersistedQuery.Sha256Hash = playbackAccessTokenHash

	body, err := s.gql.Query(ctx, persisted)
	if err != nil {
		return nil, "", err
	}

	parsed, err := parseTokenResponse(body)
	if err != nil {
		return nil, "", err
	}

	if hasPersistedQueryNotFound(parsed) {
		full := tokenRequest{
			OperationName: playbackAccessTokenOperation,
			Query:         playbackAccessTokenQuery,
			Variables:     vars,
		}
		body, err = s.gql.Query(ctx, full)
		if err != nil {
			return nil, "", err
		}
		parsed, err = parseTokenResponse(body)
		if err != nil {
			return nil, "", err
		}
	}

	access := parsed.Data.StreamPlaybackAccessToken
	if access == nil || access.Value == "" {
		return nil, diagnostic(parsed), nil
	}

	return &domain.PlaybackToken{
		Value:      access.Value,
		Signature:  access.Signature,
		Authorized: !access.Authorization.IsForbidden,
		Reason:     access.Authorization.ForbiddenReasonCode,
	}, "", nil
}

func parseTokenResponse(body []byte) (*tokenResponse, error) {
	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &parsed, nil
}

func hasPersistedQueryNotFound(resp *tokenResponse) bool {
	for _, e := range resp.Errors {
		if e.Message == "PersistedQueryNotFound" {
			return true
		}
	}
	return false
}

// diagnostic summarizes a failed attempt for the aggregate error.
func diagnostic(resp *tokenResponse) string {
	if access := resp.Data.StreamPlaybackAccessToken; access != nil && access.Authorization.IsForbidden {
		return fmt.Sprintf("authorization forbidden (%s)", access.Authorization.ForbiddenReasonCode)
	}
	if len(resp.Errors) > 0 {
		return resp.Errors[0].Message
	}
	return "empty playback token"
}
