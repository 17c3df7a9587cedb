package http

import (
	"errors"
	"net/http"
	"time"

	"streamgate/internal/core/domain"
	"streamgate/internal/core/ports"
	apperrors "streamgate/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChannelMetrics records end-to-end channel resolution timings.
type ChannelMetrics interface {
	ObserveChannelRequest(d time.Duration)
}

type nopChannelMetrics struct{}

func (nopChannelMetrics) ObserveChannelRequest(d time.Duration) {}

type StreamHandler struct {
	channels ports.ChannelService
	metrics  ChannelMetrics
	logger   *zap.SugaredLogger
}

func NewStreamHandler(channels ports.ChannelService, metrics ChannelMetrics, logger *zap.SugaredLogger) *StreamHandler {
	if metrics == nil {
		metrics = nopChannelMetrics{}
	}
	return &StreamHandler{
		channels: channels,
		metrics:  metrics,
		logger:   logger,
	}
}

func (h *StreamHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/stream/:channel", h.GetStream)
}

// GetStream resolves a channel into its playable quality variants. Every
// variant URL in the response already points back through the proxy
// endpoint, so clients never touch the upstream CDN directly.
func (h *StreamHandler) GetStream(c *gin.Context) {
	channel := domain.NormalizeChannelID(c.Param("channel"))

	start := time.Now()
	info, err := h.channels.ChannelInfo(c.Request.Context(), channel)
	h.metrics.ObserveChannelRequest(time.Since(start))
	if err != nil {
		c.Error(h.translate(err))
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *StreamHandler) translate(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, domain.ErrChannelRequired):
		return apperrors.NewInvalidInputError(domain.ErrChannelRequired.Error())
	case errors.Is(err, domain.ErrTokenUnavailable):
		return apperrors.NewNotFoundError(domain.ErrTokenUnavailable.Error())
	case errors.Is(err, domain.ErrUpstreamTimeout):
		return apperrors.NewUpstreamError(err, domain.ErrUpstreamTimeout.Error())
	case errors.Is(err, domain.ErrPlaylistUnavailable):
		return apperrors.NewUpstreamError(err, domain.ErrPlaylistUnavailable.Error())
	default:
		return apperrors.NewInternalError("failed to resolve channel")
	}
}
