package http

import (
	"errors"
	"io"
	"net/http"

	"streamgate/internal/core/domain"
	"streamgate/internal/core/ports"
	"streamgate/internal/infrastructure/streaming"
	apperrors "streamgate/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProxyMetrics is the slice of the metrics collector the proxy endpoint
// reports into.
type ProxyMetrics interface {
	ProxyRequest(outcome string)
	ProxyBytes(n int64)
}

type nopProxyMetrics struct{}

func (nopProxyMetrics) ProxyRequest(outcome string) {}

func (nopProxyMetrics) ProxyBytes(n int64) {}

// ProxyHandler fetches an allow-listed upstream resource on the client's
// behalf. Playlist responses are rewritten so their variant and segment
// URLs route back through this same endpoint; everything else streams
// through unchanged.
type ProxyHandler struct {
	fetcher    ports.Fetcher
	guard      ports.AllowList
	publicPath string
	metrics    ProxyMetrics
	logger     *zap.SugaredLogger
}

func NewProxyHandler(fetcher ports.Fetcher, guard ports.AllowList, publicPath string, metrics ProxyMetrics, logger *zap.SugaredLogger) *ProxyHandler {
	if metrics == nil {
		metrics = nopProxyMetrics{}
	}
	return &ProxyHandler{
		fetcher:    fetcher,
		guard:      guard,
		publicPath: publicPath,
		metrics:    metrics,
		logger:     logger,
	}
}

func (h *ProxyHandler) SetupRoutes(router *gin.Engine) {
	router.GET(h.publicPath, h.Proxy)
}

func (h *ProxyHandler) Proxy(c *gin.Context) {
	target := c.Query("url")
	if target == "" {
		h.metrics.ProxyRequest("rejected")
		c.Error(apperrors.NewInvalidInputError("url parameter is required"))
		return
	}
	if !h.guard.IsAllowed(target) {
		h.metrics.ProxyRequest("rejected")
		h.logger.Warnw("proxy target refused", "url", target, "client_ip", c.ClientIP())
		c.Error(apperrors.NewPolicyViolationError(domain.ErrTargetNotAllowed.Error()))
		return
	}

	header := http.Header{}
	if rng := c.GetHeader("Range"); rng != "" {
		header.Set("Range", rng)
	}

	resp, err := h.fetcher.Open(c.Request.Context(), target, header)
	if err != nil {
		h.metrics.ProxyRequest("error")
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			c.Error(apperrors.NewUpstreamError(err, domain.ErrUpstreamTimeout.Error()))
			return
		}
		c.Error(apperrors.NewUpstreamError(err, "upstream fetch failed"))
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	if streaming.IsPlaylist(contentType, target) {
		h.servePlaylist(c, resp, contentType)
		return
	}
	h.servePassthrough(c, resp, contentType)
}

// servePlaylist buffers the playlist and rewrites its URL lines. The
// rewrite changes the body length, so the upstream Content-Length never
// reaches the client.
func (h *ProxyHandler) servePlaylist(c *gin.Context, resp *http.Response, contentType string) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.metrics.ProxyRequest("error")
		c.Error(apperrors.NewUpstreamError(err, "reading upstream playlist failed"))
		return
	}

	rewritten := streaming.Rewrite(string(body), h.publicPath+"?url=")
	if contentType == "" {
		contentType = "application/vnd.apple.mpegurl"
	}

	h.metrics.ProxyRequest("ok")
	h.metrics.ProxyBytes(int64(len(rewritten)))
	c.Data(resp.StatusCode, contentType, []byte(rewritten))
}

func (h *ProxyHandler) servePassthrough(c *gin.Context, resp *http.Response, contentType string) {
	for _, key := range []string{"Content-Length", "Content-Range", "Accept-Ranges", "Cache-Control"} {
		if v := resp.Header.Get(key); v != "" {
			c.Header(key, v)
		}
	}
	if contentType != "" {
		c.Header("Content-Type", contentType)
	}
	c.Status(resp.StatusCode)

	n, err := io.Copy(c.Writer, resp.Body)
	h.metrics.ProxyBytes(n)
	if err != nil {
		// Headers are already gone; all we can do is cut the stream short.
		h.metrics.ProxyRequest("error")
		h.logger.Warnw("proxy stream interrupted", "error", err, "bytes", n)
		return
	}
	h.metrics.ProxyRequest("ok")
}
