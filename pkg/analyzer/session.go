package analyzer

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder receives observability signals for an analysis session. All
// calls through Session are best-effort: a failing or panicking recorder is
// logged and swallowed, never propagated.
type Recorder interface {
	StartSession(id string)
	Tag(id, key, value string) error
	EndSession(id string)
}

// Session is the correlation identifier for one multi-section analysis. It
// is created at the start of a run, passed explicitly, and cleared at the
// end (including on failure paths). It never coordinates concurrency; each
// concurrent analysis owns its own Session.
type Session struct {
	ID       string
	recorder Recorder
	log      *zap.Logger
}

// StartSession opens a new request-scoped session. recorder may be nil.
func StartSession(recorder Recorder, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{ID: uuid.NewString(), recorder: recorder, log: log}
	s.guard("start", func() { recorder.StartSession(s.ID) })
	return s
}

// Tag attaches a key/value to the session's trace. Failures never affect
// control flow.
func (s *Session) Tag(key, value string) {
	if s == nil {
		return
	}
	s.guard("tag", func() {
		if err := s.recorder.Tag(s.ID, key, value); err != nil {
			s.log.Debug("session tag failed",
				zap.String("session_id", s.ID),
				zap.String("key", key),
				zap.Error(err))
		}
	})
}

// End clears the session. Safe to call from a defer on all paths.
func (s *Session) End() {
	if s == nil {
		return
	}
	s.guard("end", func() { s.recorder.EndSession(s.ID) })
}

// guard runs a recorder call, swallowing panics. Observability must never
// take down an analysis.
func (s *Session) guard(op string, fn func()) {
	if s.recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Debug("session recorder panicked",
				zap.String("session_id", s.ID),
				zap.String("op", op),
				zap.Any("panic", r))
		}
	}()
	fn()
}
