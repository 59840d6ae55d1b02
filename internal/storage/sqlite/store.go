package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lutefd/pokerlog/internal/domain/sessions"
	"github.com/lutefd/pokerlog/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sessionColumns = `
	id, user_id, status, game_type, small_blind, big_blind, buy_in, cash_out,
	table_size, location, start_time, end_time, stack_size_updates, notes,
	created_at, updated_at`

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store provides SQLite-backed session persistence for the local client.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite store at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: time.Now}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]sessions.Session, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE user_id = ?
		ORDER BY start_time DESC
	`, userID.String())
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
	row := s.sqlDB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE id = ? AND user_id = ?
	`, id.String(), userID.String())
	v, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sessions.Session{}, sessions.ErrNotFound
		}
		return sessions.Session{}, err
	}
	return v, nil
}

func (s *Store) CreateSession(ctx context.Context, v sessions.Session) (sessions.Session, error) {
	updates, err := encodeStackUpdates(v.StackSizeUpdates)
	if err != nil {
		return sessions.Session{}, err
	}

	now := s.now().UTC()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	_, err = s.sqlDB.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.ID.String(), v.UserID.String(), string(v.Status), string(v.GameType), v.SmallBlind, v.BigBlind, v.BuyIn, nullFloat(v.CashOut),
		string(v.TableSize), v.Location, toMillis(v.StartTime), nullMillis(v.EndTime), updates, v.Notes,
		toMillis(now), toMillis(now),
	)
	if err != nil {
		return sessions.Session{}, mapWriteError(err)
	}
	return s.GetSession(ctx, v.UserID, v.ID)
}

func (s *Store) UpdateSession(ctx context.Context, v sessions.Session) (sessions.Session, error) {
	updates, err := encodeStackUpdates(v.StackSizeUpdates)
	if err != nil {
		return sessions.Session{}, err
	}

	res, err := s.sqlDB.ExecContext(ctx, `
		UPDATE sessions SET
			game_type = ?,
			small_blind = ?,
			big_blind = ?,
			buy_in = ?,
			cash_out = ?,
			table_size = ?,
			location = ?,
			start_time = ?,
			end_time = ?,
			stack_size_updates = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND status = 'completed'
	`,
		string(v.GameType), v.SmallBlind, v.BigBlind, v.BuyIn, nullFloat(v.CashOut),
		string(v.TableSize), v.Location, toMillis(v.StartTime), nullMillis(v.EndTime), updates, v.Notes,
		toMillis(s.now()), v.ID.String(), v.UserID.String(),
	)
	if err != nil {
		return sessions.Session{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return sessions.Session{}, err
	} else if n == 0 {
		return sessions.Session{}, sessions.ErrNotCompleted
	}
	return s.GetSession(ctx, v.UserID, v.ID)
}

func (s *Store) EndLiveSession(ctx context.Context, userID, id uuid.UUID, cashOut float64, endedAt time.Time) (sessions.Session, error) {
	res, err := s.sqlDB.ExecContext(ctx, `
		UPDATE sessions SET
			status = 'completed',
			cash_out = ?,
			end_time = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND status = 'live'
	`, cashOut, toMillis(endedAt), toMillis(s.now()), id.String(), userID.String())
	if err != nil {
		return sessions.Session{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return sessions.Session{}, err
	} else if n == 0 {
		return sessions.Session{}, sessions.ErrNotLive
	}
	return s.GetSession(ctx, userID, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (sessions.Session, error) {
	var (
		v                              sessions.Session
		id, userID                     string
		status, gameType, tableSize    string
		cashOut                        sql.NullFloat64
		startTime, createdAt, updateAt int64
		endTime                        sql.NullInt64
		updates                        string
	)
	if err := row.Scan(
		&id, &userID, &status, &gameType, &v.SmallBlind, &v.BigBlind, &v.BuyIn, &cashOut,
		&tableSize, &v.Location, &startTime, &endTime, &updates, &v.Notes,
		&createdAt, &updateAt,
	); err != nil {
		return sessions.Session{}, err
	}

	var err error
	if v.ID, err = uuid.Parse(id); err != nil {
		return sessions.Session{}, fmt.Errorf("parse session id: %w", err)
	}
	if v.UserID, err = uuid.Parse(userID); err != nil {
		return sessions.Session{}, fmt.Errorf("parse user id: %w", err)
	}
	v.Status = sessions.Status(status)
	v.GameType = sessions.GameType(gameType)
	v.TableSize = sessions.TableSize(tableSize)
	if cashOut.Valid {
		value := cashOut.Float64
		v.CashOut = &value
	}
	v.StartTime = fromMillis(startTime)
	if endTime.Valid {
		value := fromMillis(endTime.Int64)
		v.EndTime = &value
	}
	v.CreatedAt = fromMillis(createdAt)
	v.UpdatedAt = fromMillis(updateAt)
	if v.StackSizeUpdates, err = decodeStackUpdates(updates); err != nil {
		return sessions.Session{}, err
	}
	return v, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullMillis(v *time.Time) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*v), Valid: true}
}

func encodeStackUpdates(items []sessions.StackUpdate) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal stack updates: %w", err)
	}
	return string(encoded), nil
}

func decodeStackUpdates(value string) ([]sessions.StackUpdate, error) {
	items := []sessions.StackUpdate{}
	value = strings.TrimSpace(value)
	if value == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("unmarshal stack updates: %w", err)
	}
	return items, nil
}

func mapWriteError(err error) error {
	var sqliteErr *msqlite.Error
	code := 0
	if errors.As(err, &sqliteErr) {
		code = sqliteErr.Code()
	}
	message := strings.ToLower(err.Error())
	switch {
	case code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY,
		strings.Contains(message, "constraint failed: sessions.id"):
		return sessions.ErrSessionExists
	case code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE,
		strings.Contains(message, "constraint failed: sessions.user_id"):
		return sessions.ErrLiveSessionExists
	}
	return err
}

const migrationTable = "schema_migrations"

// applyMigrations executes each embedded .sql file at most once.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	if _, err := sqlDB.Exec(`
		CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
			name TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var found int
		err := sqlDB.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec("INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)", file, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}
