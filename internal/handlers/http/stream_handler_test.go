package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamgate/internal/core/domain"
	"streamgate/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubChannelService struct {
	info *domain.ChannelInfo
	err  error
	got  domain.ChannelID
}

func (s *stubChannelService) ChannelInfo(ctx context.Context, channel domain.ChannelID) (*domain.ChannelInfo, error) {
	s.got = channel
	return s.info, s.err
}

func streamRouter(t *testing.T, channels *stubChannelService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t).Sugar()
	handler := NewStreamHandler(channels, nil, logger)

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	handler.SetupRoutes(router)
	return router
}

func TestGetStream_ReturnsProxiedQualities(t *testing.T) {
	channels := &stubChannelService{
		info: &domain.ChannelInfo{
			Channel: "somechannel",
			Qualities: []domain.QualityVariant{
				{Label: "1080p60", URL: "/proxy?url=https%3A%2F%2Fvideo.ttvnw.net%2F1080p.m3u8"},
			},
			Playlist: "#EXTM3U\n",
		},
	}
	router := streamRouter(t, channels)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/SomeChannel", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ChannelID("somechannel"), channels.got, "channel logins are normalized to lowercase")

	var got domain.ChannelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Qualities, 1)
	assert.Equal(t, "1080p60", got.Qualities[0].Label)
	assert.Contains(t, got.Qualities[0].URL, "/proxy?url=")
}

func TestGetStream_OfflineChannelIs404(t *testing.T) {
	router := streamRouter(t, &stubChannelService{err: domain.ErrTokenUnavailable})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/ghostchannel", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "stream not found or offline")
}

func TestGetStream_UpstreamFailureIs500(t *testing.T) {
	router := streamRouter(t, &stubChannelService{err: domain.ErrPlaylistUnavailable})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream/somechannel", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
