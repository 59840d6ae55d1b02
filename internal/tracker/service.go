package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/pokerlog/internal/domain/sessions"
	"github.com/lutefd/pokerlog/internal/domain/stats"
	"github.com/lutefd/pokerlog/internal/events"
)

// Store is the persistence collaborator. Implementations assign an ID when
// the session has none and return sessions.ErrNotFound for unknown or
// foreign sessions.
type Store interface {
	ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]sessions.Session, error)
	GetSession(ctx context.Context, userID, id uuid.UUID) (sessions.Session, error)
	CreateSession(ctx context.Context, s sessions.Session) (sessions.Session, error)
	UpdateSession(ctx context.Context, s sessions.Session) (sessions.Session, error)
	EndLiveSession(ctx context.Context, userID, id uuid.UUID, cashOut float64, endedAt time.Time) (sessions.Session, error)
}

type Overview struct {
	Stats       stats.SessionStats   `json:"stats"`
	Formatted   stats.FormattedStats `json:"formatted"`
	LiveSession *sessions.Session    `json:"liveSession"`
	LastSession *sessions.Session    `json:"lastSession"`
}

type Service struct {
	store Store
	bus   *events.Bus
	now   func() time.Time
}

func NewService(store Store, bus *events.Bus) *Service {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{
		store: store,
		bus:   bus,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) ListSessions(ctx context.Context, userID uuid.UUID) ([]sessions.Session, error) {
	items, err := s.store.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return items, nil
}

func (s *Service) GetSession(ctx context.Context, userID, id uuid.UUID) (sessions.Session, error) {
	return s.store.GetSession(ctx, userID, id)
}

func (s *Service) LiveSession(ctx context.Context, userID uuid.UUID) (sessions.Session, bool, error) {
	items, err := s.ListSessions(ctx, userID)
	if err != nil {
		return sessions.Session{}, false, err
	}
	live, found := sessions.FindLive(items)
	return live, found, nil
}

// StartLiveSession checks a fresh snapshot for an existing live session
// before creating one. Stores back this with a unique index, so a concurrent
// start also fails with sessions.ErrLiveSessionExists.
func (s *Service) StartLiveSession(ctx context.Context, userID uuid.UUID, draft sessions.Session) (sessions.Session, error) {
	items, err := s.ListSessions(ctx, userID)
	if err != nil {
		return sessions.Session{}, err
	}
	if !sessions.CanStartLive(items) {
		return sessions.Session{}, sessions.ErrLiveSessionExists
	}

	draft.ID = uuid.Nil
	draft.UserID = userID
	live, err := sessions.NewLiveSession(draft, s.now())
	if err != nil {
		return sessions.Session{}, err
	}
	created, err := s.store.CreateSession(ctx, live)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("create live session: %w", err)
	}
	s.publish(ctx, events.LiveSessionStarted, created)
	return created, nil
}

// AddSession records a finished session in one step.
func (s *Service) AddSession(ctx context.Context, userID uuid.UUID, in sessions.Session) (sessions.Session, error) {
	if in.Status == "" {
		in.Status = sessions.StatusCompleted
	}
	if in.Status != sessions.StatusCompleted {
		return sessions.Session{}, fmt.Errorf("%w: use a live session start for in-progress sessions", sessions.ErrInvalidSession)
	}
	in.ID = uuid.Nil
	in.UserID = userID
	if err := in.Validate(); err != nil {
		return sessions.Session{}, err
	}
	created, err := s.store.CreateSession(ctx, in)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("create session: %w", err)
	}
	s.publish(ctx, events.SessionCreated, created)
	return created, nil
}

// ImportSession stores a session recorded elsewhere, keeping its ID and
// timestamps. A session whose ID is already stored is rejected with
// sessions.ErrSessionExists, so importing the same file twice adds nothing.
// A live session is accepted only while the user has none.
func (s *Service) ImportSession(ctx context.Context, userID uuid.UUID, in sessions.Session) (sessions.Session, error) {
	in.UserID = userID
	if err := in.Validate(); err != nil {
		return sessions.Session{}, err
	}
	if in.ID != uuid.Nil {
		_, err := s.store.GetSession(ctx, userID, in.ID)
		if err == nil {
			return sessions.Session{}, sessions.ErrSessionExists
		}
		if !errors.Is(err, sessions.ErrNotFound) {
			return sessions.Session{}, err
		}
	}
	if in.IsLive() {
		items, err := s.ListSessions(ctx, userID)
		if err != nil {
			return sessions.Session{}, err
		}
		if !sessions.CanStartLive(items) {
			return sessions.Session{}, sessions.ErrLiveSessionExists
		}
	}

	created, err := s.store.CreateSession(ctx, in)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("import session: %w", err)
	}
	s.publish(ctx, events.SessionCreated, created)
	return created, nil
}

// UpdateSession edits a completed session. Live sessions only change by
// being ended.
func (s *Service) UpdateSession(ctx context.Context, userID, id uuid.UUID, in sessions.Session) (sessions.Session, error) {
	existing, err := s.store.GetSession(ctx, userID, id)
	if err != nil {
		return sessions.Session{}, err
	}
	if !existing.IsCompleted() {
		return sessions.Session{}, sessions.ErrNotCompleted
	}

	in.ID = existing.ID
	in.UserID = userID
	in.CreatedAt = existing.CreatedAt
	if in.Status == "" {
		in.Status = sessions.StatusCompleted
	}
	if in.Status != sessions.StatusCompleted {
		return sessions.Session{}, fmt.Errorf("%w: a completed session cannot return to %q", sessions.ErrInvalidSession, in.Status)
	}
	if err := in.Validate(); err != nil {
		return sessions.Session{}, err
	}

	updated, err := s.store.UpdateSession(ctx, in)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("update session: %w", err)
	}
	s.publish(ctx, events.SessionUpdated, updated)
	return updated, nil
}

// EndSession completes a live session with the given cash-out, stamping the
// end time to now.
func (s *Service) EndSession(ctx context.Context, userID, id uuid.UUID, cashOut float64) (sessions.Session, error) {
	existing, err := s.store.GetSession(ctx, userID, id)
	if err != nil {
		return sessions.Session{}, err
	}
	ended, err := existing.End(cashOut, s.now())
	if err != nil {
		return sessions.Session{}, err
	}

	stored, err := s.store.EndLiveSession(ctx, userID, id, *ended.CashOut, *ended.EndTime)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("end session: %w", err)
	}
	s.publish(ctx, events.SessionEnded, stored)
	return stored, nil
}

func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (Overview, error) {
	items, err := s.ListSessions(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	summary := stats.Calculate(items)
	out := Overview{Stats: summary, Formatted: summary.Format()}
	if live, ok := sessions.FindLive(items); ok {
		out.LiveSession = &live
	}
	if last, ok := sessions.LatestCompleted(items); ok {
		out.LastSession = &last
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, name events.Name, session sessions.Session) {
	if err := s.bus.Publish(ctx, events.Event{Name: name, Session: session, At: s.now()}); err != nil {
		log.Printf("event %s for session %s: %v", name, session.ID, err)
	}
}
