package services

import (
	"context"
	"encoding/json"
	"fmt"

	"streamgate/internal/core/domain"

	"go.uber.org/zap"
)

const channelMetadataQuery = `query ChannelMetadata($login: String!) { user(login: $login) { displayName profileImageURL(width: 70) stream { title viewersCount game { name } } } }`

type metadataRequest struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
	Variables     struct {
		Login string `json:"login"`
	} `json:"variables"`
}

type metadataResponse struct {
	Data struct {
		User *struct {
			DisplayName     string `json:"displayName"`
			ProfileImageURL string `json:"profileImageURL"`
			Stream          *struct {
				Title        string `json:"title"`
				ViewersCount int    `json:"viewersCount"`
				Game         *struct {
					Name string `json:"name"`
				} `json:"game"`
			} `json:"stream"`
		} `json:"user"`
	} `json:"data"`
}

// MetadataService fetches channel display metadata. Callers treat it as
// best-effort; a failure never fails the overall channel-info request.
type MetadataService struct {
	gql    GraphQLClient
	logger *zap.SugaredLogger
}

func NewMetadataService(gql GraphQLClient, logger *zap.SugaredLogger) *MetadataService {
	return &MetadataService{
		gql:    gql,
		logger: logger,
	}
}

func (s *MetadataService) Fetch(ctx context.Context, channel domain.ChannelID) (*domain.StreamMetadata, error) {
	req := metadataRequest{
		OperationName: "ChannelMetadata",
		Query:         channelMetadataQuery,
	}
	req.Variables.Login = string(channel)

	body, err := s.gql.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	var parsed metadataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode metadata response: %w", err)
	}

	user := parsed.Data.User
	if user == nil {
		return nil, fmt.Errorf("channel %s: no such user", channel)
	}

	meta := &domain.StreamMetadata{
		DisplayName:     user.DisplayName,
		ProfileImageURL: user.ProfileImageURL,
	}
	if user.Stream != nil {
		meta.IsLive = true
		meta.Title = user.Stream.Title
		meta.ViewerCount = user.Stream.ViewersCount
		if user.Stream.Game != nil {
			meta.GameName = user.Stream.Game.Name
		}
	}

	return meta, nil
}
