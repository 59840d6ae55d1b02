package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/pokerlog/internal/domain/sessions"
	"github.com/lutefd/pokerlog/internal/events"
)

type trackerStoreMock struct {
	sessions []sessions.Session

	created []sessions.Session
	updated []sessions.Session
	ended   []uuid.UUID
	listErr error
}

func (m *trackerStoreMock) ListSessionsByUser(_ context.Context, _ uuid.UUID) ([]sessions.Session, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.sessions, nil
}

func (m *trackerStoreMock) GetSession(_ context.Context, userID, id uuid.UUID) (sessions.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id && s.UserID == userID {
			return s, nil
		}
	}
	return sessions.Session{}, sessions.ErrNotFound
}

func (m *trackerStoreMock) CreateSession(_ context.Context, s sessions.Session) (sessions.Session, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.created = append(m.created, s)
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *trackerStoreMock) UpdateSession(_ context.Context, s sessions.Session) (sessions.Session, error) {
	m.updated = append(m.updated, s)
	return s, nil
}

func (m *trackerStoreMock) EndLiveSession(_ context.Context, userID, id uuid.UUID, cashOut float64, endedAt time.Time) (sessions.Session, error) {
	for i, s := range m.sessions {
		if s.ID != id || s.UserID != userID || !s.IsLive() {
			continue
		}
		s.Status = sessions.StatusCompleted
		s.CashOut = &cashOut
		s.EndTime = &endedAt
		m.sessions[i] = s
		m.ended = append(m.ended, id)
		return s, nil
	}
	return sessions.Session{}, sessions.ErrNotLive
}

var (
	userID = uuid.New()
	base   = time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)
)

func newTestService(store Store, bus *events.Bus, now time.Time) *Service {
	svc := NewService(store, bus)
	svc.now = func() time.Time { return now }
	return svc
}

func completedSession(buyIn, cashOut float64, start time.Time, d time.Duration) sessions.Session {
	s := sessions.Draft()
	s.ID = uuid.New()
	s.UserID = userID
	s.BuyIn = buyIn
	s.StartTime = start
	out, err := sessions.NewCompletedSession(s, start.Add(d), cashOut)
	if err != nil {
		panic(err)
	}
	return out
}

func TestStartLiveSessionCreatesLiveSession(t *testing.T) {
	mock := &trackerStoreMock{sessions: []sessions.Session{completedSession(100, 150, base, time.Hour)}}
	now := base.Add(24 * time.Hour)
	bus := events.NewBus()
	var published []events.Name
	bus.SubscribeAll(func(_ context.Context, e events.Event) error {
		published = append(published, e.Name)
		if !e.At.Equal(now) {
			t.Errorf("expected event time %s, got %s", now, e.At)
		}
		return nil
	})
	svc := newTestService(mock, bus, now)

	draft := sessions.Draft()
	draft.BuyIn = 200
	draft.Location = "Casino"
	created, err := svc.StartLiveSession(context.Background(), userID, draft)
	if err != nil {
		t.Fatalf("start live session: %v", err)
	}
	if !created.IsLive() || !created.StartTime.Equal(now) {
		t.Fatalf("expected live session starting now, got %+v", created)
	}
	if created.UserID != userID {
		t.Fatalf("expected user ID to be set")
	}
	if len(mock.created) != 1 {
		t.Fatalf("expected 1 created session, got %d", len(mock.created))
	}
	if len(published) != 1 || published[0] != events.LiveSessionStarted {
		t.Fatalf("unexpected events: %+v", published)
	}
}

func TestStartLiveSessionRejectsSecondLiveSession(t *testing.T) {
	existing := sessions.Draft()
	existing.ID = uuid.New()
	existing.UserID = userID
	existing, err := sessions.NewLiveSession(existing, base)
	if err != nil {
		t.Fatalf("build live session: %v", err)
	}
	mock := &trackerStoreMock{sessions: []sessions.Session{existing}}
	svc := newTestService(mock, nil, base.Add(time.Hour))

	_, err = svc.StartLiveSession(context.Background(), userID, sessions.Draft())
	if !errors.Is(err, sessions.ErrLiveSessionExists) {
		t.Fatalf("expected ErrLiveSessionExists, got %v", err)
	}
	if len(mock.created) != 0 {
		t.Fatalf("expected no session to be created")
	}
}

func TestStartLiveSessionSurfacesStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := newTestService(&trackerStoreMock{listErr: storeErr}, nil, base)
	if _, err := svc.StartLiveSession(context.Background(), userID, sessions.Draft()); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAddSessionRequiresCompletedData(t *testing.T) {
	mock := &trackerStoreMock{}
	svc := newTestService(mock, nil, base)

	in := completedSession(100, 80, base, 2*time.Hour)
	in.Status = ""
	created, err := svc.AddSession(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("add session: %v", err)
	}
	if created.Status != sessions.StatusCompleted {
		t.Fatalf("expected status to default to completed, got %q", created.Status)
	}

	missingCashOut := completedSession(100, 80, base, time.Hour)
	missingCashOut.CashOut = nil
	if _, err := svc.AddSession(context.Background(), userID, missingCashOut); !errors.Is(err, sessions.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	live := sessions.Draft()
	live.Status = sessions.StatusLive
	live.StartTime = base
	if _, err := svc.AddSession(context.Background(), userID, live); !errors.Is(err, sessions.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for live input, got %v", err)
	}
	if len(mock.created) != 1 {
		t.Fatalf("expected only the valid session to be stored, got %d", len(mock.created))
	}
}

func TestUpdateSession(t *testing.T) {
	done := completedSession(100, 150, base, time.Hour)
	liveDraft := sessions.Draft()
	liveDraft.ID = uuid.New()
	liveDraft.UserID = userID
	live, err := sessions.NewLiveSession(liveDraft, base)
	if err != nil {
		t.Fatalf("build live session: %v", err)
	}
	mock := &trackerStoreMock{sessions: []sessions.Session{done, live}}
	svc := newTestService(mock, nil, base.Add(time.Hour))

	edit := done
	edit.Notes = "tough table"
	cashOut := 175.0
	edit.CashOut = &cashOut
	updated, err := svc.UpdateSession(context.Background(), userID, done.ID, edit)
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.Notes != "tough table" || *updated.CashOut != 175 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	if _, err := svc.UpdateSession(context.Background(), userID, live.ID, edit); !errors.Is(err, sessions.ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted for live session, got %v", err)
	}

	backToLive := edit
	backToLive.Status = sessions.StatusLive
	if _, err := svc.UpdateSession(context.Background(), userID, done.ID, backToLive); !errors.Is(err, sessions.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for completed to live, got %v", err)
	}

	if _, err := svc.UpdateSession(context.Background(), userID, uuid.New(), edit); !errors.Is(err, sessions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(mock.updated) != 1 {
		t.Fatalf("expected 1 stored update, got %d", len(mock.updated))
	}
}

func TestEndSession(t *testing.T) {
	draft := sessions.Draft()
	draft.ID = uuid.New()
	draft.UserID = userID
	draft.BuyIn = 300
	live, err := sessions.NewLiveSession(draft, base)
	if err != nil {
		t.Fatalf("build live session: %v", err)
	}
	mock := &trackerStoreMock{sessions: []sessions.Session{live}}
	now := base.Add(3 * time.Hour)
	svc := newTestService(mock, nil, now)

	ended, err := svc.EndSession(context.Background(), userID, live.ID, 420)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if !ended.IsCompleted() || !ended.EndTime.Equal(now) || *ended.CashOut != 420 {
		t.Fatalf("unexpected ended session: %+v", ended)
	}

	if _, err := svc.EndSession(context.Background(), userID, live.ID, 10); !errors.Is(err, sessions.ErrNotLive) {
		t.Fatalf("expected ErrNotLive ending twice, got %v", err)
	}
}

func TestOverview(t *testing.T) {
	draft := sessions.Draft()
	draft.ID = uuid.New()
	draft.UserID = userID
	live, err := sessions.NewLiveSession(draft, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("build live session: %v", err)
	}
	win := completedSession(100, 150, base, time.Hour)
	loss := completedSession(100, 70, base.Add(24*time.Hour), 2*time.Hour)
	mock := &trackerStoreMock{sessions: []sessions.Session{live, loss, win}}
	svc := newTestService(mock, nil, base.Add(50*time.Hour))

	got, err := svc.Overview(context.Background(), userID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if got.Stats.TotalSessions != 2 || got.Stats.TotalProfit != 20 || got.Stats.WinRate != 50 {
		t.Fatalf("unexpected stats: %+v", got.Stats)
	}
	if got.Formatted.TotalProfit != "+20$" || got.Formatted.WinRate != "50.0%" {
		t.Fatalf("unexpected formatted stats: %+v", got.Formatted)
	}
	if got.LiveSession == nil || got.LiveSession.ID != live.ID {
		t.Fatalf("expected live session in overview")
	}
	if got.LastSession == nil || got.LastSession.ID != loss.ID {
		t.Fatalf("expected last completed session to be the loss")
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	bus := events.NewBus()
	bus.Subscribe(events.SessionCreated, func(_ context.Context, _ events.Event) error {
		return errors.New("subscriber down")
	})
	svc := newTestService(&trackerStoreMock{}, bus, base)

	if _, err := svc.AddSession(context.Background(), userID, completedSession(50, 60, base, time.Hour)); err != nil {
		t.Fatalf("expected write to succeed despite subscriber error, got %v", err)
	}
}

func TestImportSessionKeepsTimestamps(t *testing.T) {
	mock := &trackerStoreMock{}
	svc := newTestService(mock, nil, base.Add(48*time.Hour))

	in := completedSession(100, 40, base, 2*time.Hour)
	in.UserID = uuid.New()
	created, err := svc.ImportSession(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("import session: %v", err)
	}
	if created.ID != in.ID || created.UserID != userID || !created.StartTime.Equal(base) || !created.EndTime.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected imported session: %+v", created)
	}

	live := sessions.Draft()
	live, err = sessions.NewLiveSession(live, base.Add(30*time.Hour))
	if err != nil {
		t.Fatalf("build live session: %v", err)
	}
	if _, err := svc.ImportSession(context.Background(), userID, live); err != nil {
		t.Fatalf("import live session: %v", err)
	}
	if _, err := svc.ImportSession(context.Background(), userID, live); !errors.Is(err, sessions.ErrLiveSessionExists) {
		t.Fatalf("expected ErrLiveSessionExists, got %v", err)
	}

	if _, err := svc.ImportSession(context.Background(), userID, in); !errors.Is(err, sessions.ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists on re-import, got %v", err)
	}

	bad := in
	bad.ID = uuid.New()
	bad.CashOut = nil
	if _, err := svc.ImportSession(context.Background(), userID, bad); !errors.Is(err, sessions.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if len(mock.created) != 2 {
		t.Fatalf("expected 2 created sessions, got %d", len(mock.created))
	}
}
