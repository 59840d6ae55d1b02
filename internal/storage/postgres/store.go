package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lutefd/pokerlog/internal/domain/sessions"
)

const (
	liveSessionIndex = "sessions_one_live_per_user"
	primaryKey       = "sessions_pkey"
	uniqueViolation  = "23505"
)

const sessionColumns = `
	id, user_id, status, game_type, small_blind, big_blind, buy_in, cash_out,
	table_size, location, start_time, end_time, stack_size_updates, notes,
	created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]sessions.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = $1
		ORDER BY start_time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]sessions.Session, 0)
	for rows.Next() {
		v, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

func (s *Store) GetSession(ctx context.Context, userID, id uuid.UUID) (sessions.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	v, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sessions.Session{}, sessions.ErrNotFound
		}
		return sessions.Session{}, err
	}
	return v, nil
}

// CreateSession inserts v, generating an ID when v has none.
func (s *Store) CreateSession(ctx context.Context, v sessions.Session) (sessions.Session, error) {
	updates, err := encodeStackUpdates(v.StackSizeUpdates)
	if err != nil {
		return sessions.Session{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return sessions.Session{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO users (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
	`, v.UserID); err != nil {
		return sessions.Session{}, err
	}

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now().UTC()
	row := tx.QueryRow(ctx, `
		INSERT INTO sessions (
			id, user_id, status, game_type, small_blind, big_blind, buy_in, cash_out,
			table_size, location, start_time, end_time, stack_size_updates, notes,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
		RETURNING `+sessionColumns,
		v.ID, v.UserID, v.Status, v.GameType, v.SmallBlind, v.BigBlind, v.BuyIn, v.CashOut,
		v.TableSize, v.Location, v.StartTime, v.EndTime, updates, v.Notes, now,
	)
	created, err := scanSession(row)
	if err != nil {
		return sessions.Session{}, mapWriteError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return sessions.Session{}, mapWriteError(err)
	}
	return created, nil
}

// UpdateSession rewrites the fields of a completed session.
func (s *Store) UpdateSession(ctx context.Context, v sessions.Session) (sessions.Session, error) {
	updates, err := encodeStackUpdates(v.StackSizeUpdates)
	if err != nil {
		return sessions.Session{}, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE sessions SET
			game_type = $3,
			small_blind = $4,
			big_blind = $5,
			buy_in = $6,
			cash_out = $7,
			table_size = $8,
			location = $9,
			start_time = $10,
			end_time = $11,
			stack_size_updates = $12,
			notes = $13,
			updated_at = $14
		WHERE id = $1 AND user_id = $2 AND status = 'completed'
		RETURNING `+sessionColumns,
		v.ID, v.UserID, v.GameType, v.SmallBlind, v.BigBlind, v.BuyIn, v.CashOut,
		v.TableSize, v.Location, v.StartTime, v.EndTime, updates, v.Notes, time.Now().UTC(),
	)
	updated, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sessions.Session{}, sessions.ErrNotCompleted
		}
		return sessions.Session{}, err
	}
	return updated, nil
}

func (s *Store) EndLiveSession(ctx context.Context, userID, id uuid.UUID, cashOut float64, endedAt time.Time) (sessions.Session, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE sessions SET
			status = 'completed',
			cash_out = $3,
			end_time = $4,
			updated_at = $5
		WHERE id = $1 AND user_id = $2 AND status = 'live'
		RETURNING `+sessionColumns,
		id, userID, cashOut, endedAt, time.Now().UTC(),
	)
	ended, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sessions.Session{}, sessions.ErrNotLive
		}
		return sessions.Session{}, err
	}
	return ended, nil
}

func scanSession(row pgx.Row) (sessions.Session, error) {
	var (
		v       sessions.Session
		updates []byte
	)
	if err := row.Scan(
		&v.ID, &v.UserID, &v.Status, &v.GameType, &v.SmallBlind, &v.BigBlind, &v.BuyIn, &v.CashOut,
		&v.TableSize, &v.Location, &v.StartTime, &v.EndTime, &updates, &v.Notes,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return sessions.Session{}, err
	}
	decoded, err := decodeStackUpdates(updates)
	if err != nil {
		return sessions.Session{}, err
	}
	v.StackSizeUpdates = decoded
	return v, nil
}

func encodeStackUpdates(items []sessions.StackUpdate) ([]byte, error) {
	if items == nil {
		items = []sessions.StackUpdate{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal stack updates: %w", err)
	}
	return encoded, nil
}

func decodeStackUpdates(raw []byte) ([]sessions.StackUpdate, error) {
	items := []sessions.StackUpdate{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal stack updates: %w", err)
	}
	return items, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case liveSessionIndex:
		return sessions.ErrLiveSessionExists
	case primaryKey:
		return sessions.ErrSessionExists
	}
	return err
}
