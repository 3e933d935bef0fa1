package entity

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrSessionOpen is returned by Begin while an edit is in progress.
	ErrSessionOpen = errors.New("session already has an open edit")

	// ErrNoOpenEdit is returned by Commit and Cancel without a Begin.
	ErrNoOpenEdit = errors.New("session has no open edit")
)

// Session groups the entities of one edit so they are committed or cancelled
// together.
//
// Begin pushes a history step on every enlisted entity. Commit closes each
// step with MaybePop, so entities that ended up unchanged drop the step, and
// returns the entities that were really edited. Cancel pops every step.
//
// A Session is not safe for concurrent use.
type Session struct {
	id           string
	clock        VersionSource
	historyLimit int
	logger       *slog.Logger

	enlisted []*Entity
	open     bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTokens sets the session token generator. Default: UUIDv7Generator.
func WithTokens(gen TokenGenerator) SessionOption {
	return func(s *Session) {
		s.id = gen.Generate()
	}
}

// WithVersionSource sets where edit versions come from. Sessions that edit
// the same entities should share one source.
func WithVersionSource(src VersionSource) SessionOption {
	return func(s *Session) {
		s.clock = src
	}
}

// WithHistoryLimit bounds each entity's undo depth after Commit. Zero leaves
// history unbounded.
func WithHistoryLimit(n int) SessionOption {
	return func(s *Session) {
		s.historyLimit = n
	}
}

// WithSessionLogger sets the logger. Default: slog.Default().
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession creates an idle session.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = UUIDv7Generator{}.Generate()
	}
	if s.clock == nil {
		s.clock = NewClock()
	}
	return s
}

// ID returns the session token.
func (s *Session) ID() string { return s.id }

// Open reports whether an edit is in progress.
func (s *Session) Open() bool { return s.open }

// Enlisted returns the entities in the open edit.
func (s *Session) Enlisted() []*Entity {
	out := make([]*Entity, len(s.enlisted))
	copy(out, s.enlisted)
	return out
}

// Begin opens an edit over entities, pushing one history step on each. If
// any push fails, steps already pushed are popped and no edit is opened.
func (s *Session) Begin(entities ...*Entity) error {
	if s.open {
		return ErrSessionOpen
	}

	v := int(s.clock.Next())
	pushed := make([]*Entity, 0, len(entities))
	for _, e := range entities {
		// Entities seeded ahead of the clock keep their own ordering.
		next := max(v, e.Version()+1)
		if err := e.Push(next); err != nil {
			for _, p := range pushed {
				p.Pop()
			}
			return fmt.Errorf("begin session %s: entity %d: %w", s.id, e.ID(), err)
		}
		pushed = append(pushed, e)
	}

	s.enlisted = pushed
	s.open = true
	s.logger.Debug("session edit begun",
		"session", s.id,
		"version", v,
		"entities", len(pushed),
	)
	return nil
}

// Commit closes the open edit and returns the entities that changed.
func (s *Session) Commit() ([]*Entity, error) {
	if !s.open {
		return nil, ErrNoOpenEdit
	}

	var edited []*Entity
	for _, e := range s.enlisted {
		if e.MaybePop() {
			edited = append(edited, e)
		}
		if s.historyLimit > 0 {
			e.TrimHistory(s.historyLimit)
		}
	}

	s.logger.Debug("session edit committed",
		"session", s.id,
		"entities", len(s.enlisted),
		"edited", len(edited),
	)
	s.close()
	return edited, nil
}

// Cancel closes the open edit and undoes it on every entity.
func (s *Session) Cancel() error {
	if !s.open {
		return ErrNoOpenEdit
	}
	for _, e := range s.enlisted {
		e.Pop()
	}
	s.logger.Debug("session edit cancelled",
		"session", s.id,
		"entities", len(s.enlisted),
	)
	s.close()
	return nil
}

func (s *Session) close() {
	s.enlisted = nil
	s.open = false
}
