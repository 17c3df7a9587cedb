package relay

import (
	"sync/atomic"

	"streamgate/internal/core/domain"

	"github.com/google/uuid"
)

// session tracks one client/upstream pairing. The state field is only
// bookkeeping for logs and metrics; the connection handler owns the
// session exclusively.
type session struct {
	id    domain.SessionID
	state atomic.Int32
}

func newSession() *session {
	s := &session{id: domain.SessionID(uuid.NewString())}
	s.state.Store(int32(domain.RelayConnecting))
	return s
}

func (s *session) setState(state domain.RelayState) {
	s.state.Store(int32(state))
}

func (s *session) currentState() domain.RelayState {
	return domain.RelayState(s.state.Load())
}
