package relay

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"streamgate/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the token query parameter gates access, not the origin
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Metrics is the subset of the collector the relay reports to.
type Metrics interface {
	RelaySessionOpened()
	RelaySessionClosed()
	RelayMessage(direction string)
}

type nopMetrics struct{}

func (nopMetrics) RelaySessionOpened() {}

func (nopMetrics) RelaySessionClosed() {}

func (nopMetrics) RelayMessage(direction string) {}

// ControlFrame is the structured message the relay itself sends to the
// client, distinct from forwarded transcription payloads.
type ControlFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Relay pipes one client WebSocket to the transcription backend. Each
// session is owned by its connection handler; message order is preserved
// per direction, and a close on either side is propagated to the other.
type Relay struct {
	upstreamURL  string
	dialer       *websocket.Dialer
	writeTimeout time.Duration
	metrics      Metrics
	logger       *zap.SugaredLogger
}

func NewRelay(upstreamURL string, handshakeTimeout, writeTimeout time.Duration, metrics Metrics, logger *zap.SugaredLogger) *Relay {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Relay{
		upstreamURL: upstreamURL,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		writeTimeout: writeTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// HandleTranscribe upgrades the inbound request and runs the session to
// completion.
func (r *Relay) HandleTranscribe(w http.ResponseWriter, req *http.Request) {
	client, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer client.Close()

	credential := req.URL.Query().Get("token")
	if credential == "" {
		// Refused before any upstream contact.
		r.closeWith(client, websocket.ClosePolicyViolation, "missing credential")
		return
	}

	sess := newSession()
	r.logger.Infow("relay session starting", "session_id", sess.id)

	target, err := r.buildUpstreamURL(req.URL.Query())
	if err != nil {
		r.sendError(client, "invalid relay configuration: "+err.Error())
		r.closeWith(client, websocket.CloseInternalServerErr, "bad upstream url")
		sess.setState(domain.RelayClosed)
		return
	}

	header := http.Header{}
	header.Set("Authorization", "Token "+credential)

	upstream, resp, err := r.dialer.DialContext(req.Context(), target, header)
	if err != nil {
		if resp != nil {
			// Non-upgrade answer from the backend: drain and report before
			// closing.
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			detail := strings.TrimSpace(string(body))
			r.sendError(client, fmt.Sprintf("transcription backend refused: %s: %s", resp.Status, detail))
			r.closeWith(client, websocket.CloseInternalServerErr, fmt.Sprintf("upstream status %d", resp.StatusCode))
		} else {
			r.sendError(client, "transcription backend unreachable: "+err.Error())
			r.closeWith(client, websocket.CloseInternalServerErr, "upstream dial failed")
		}
		sess.setState(domain.RelayClosed)
		r.logger.Warnw("relay dial failed", "session_id", sess.id, "error", err)
		return
	}
	defer upstream.Close()

	sess.setState(domain.RelayOpen)
	r.metrics.RelaySessionOpened()
	defer r.metrics.RelaySessionClosed()

	if err := r.writeJSON(client, ControlFrame{Type: "connected"}); err != nil {
		sess.setState(domain.RelayClosed)
		return
	}

	// Client to upstream. This goroutine is the only writer on the
	// upstream side, the parent the only writer on the client side.
	go r.pumpClient(client, upstream)

	r.pumpUpstream(sess, client, upstream)

	r.logger.Infow("relay session ended", "session_id", sess.id, "state", sess.currentState().String())
	sess.setState(domain.RelayClosed)
}

// pumpClient forwards client messages to the upstream channel and turns a
// client disconnect into an immediate upstream close.
func (r *Relay) pumpClient(client, upstream *websocket.Conn) {
	for {
		msgType, msg, err := client.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				deadline := time.Now().Add(r.writeTimeout)
				upstream.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(ce.Code, ce.Text), deadline)
			}
			upstream.Close()
			return
		}
		if err := upstream.WriteMessage(msgType, msg); err != nil {
			// Upstream gone; messages from here on are dropped.
			client.Close()
			return
		}
		r.metrics.RelayMessage("client_to_upstream")
	}
}

// pumpUpstream forwards upstream messages to the client and propagates the
// upstream close code and reason.
func (r *Relay) pumpUpstream(sess *session, client, upstream *websocket.Conn) {
	for {
		msgType, msg, err := upstream.ReadMessage()
		if err != nil {
			sess.setState(domain.RelayClosing)

			if ce, ok := err.(*websocket.CloseError); ok {
				r.closeWith(client, ce.Code, ce.Text)
			} else {
				// Transport-level error without a close frame: report it,
				// then close.
				r.sendError(client, "transcription backend error: "+err.Error())
				r.closeWith(client, websocket.CloseAbnormalClosure, "upstream connection lost")
			}
			return
		}
		if err := client.WriteMessage(msgType, msg); err != nil {
			return
		}
		r.metrics.RelayMessage("upstream_to_client")
	}
}

func (r *Relay) buildUpstreamURL(query url.Values) (string, error) {
	u, err := url.Parse(r.upstreamURL)
	if err != nil {
		return "", err
	}

	// Passthrough parameters, minus the credential which travels as a
	// header.
	q := u.Query()
	for key, values := range query {
		if key == "token" {
			continue
		}
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Relay) sendError(client *websocket.Conn, message string) {
	r.writeJSON(client, ControlFrame{Type: "error", Message: message})
}

func (r *Relay) writeJSON(client *websocket.Conn, frame ControlFrame) error {
	client.SetWriteDeadline(time.Now().Add(r.writeTimeout))
	err := client.WriteJSON(frame)
	client.SetWriteDeadline(time.Time{})
	return err
}

func (r *Relay) closeWith(client *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(r.writeTimeout)
	client.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
