package sessions

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidSession    = errors.New("invalid session")
	ErrNotFound          = errors.New("session not found")
	ErrLiveSessionExists = errors.New("a live session is already in progress")
	ErrNotLive           = errors.New("session is not live")
	ErrNotCompleted      = errors.New("session is not completed")
	ErrSessionExists     = errors.New("session already exists")
)

type Status string

const (
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

type GameType string

const (
	GameNLHoldem      GameType = "NL Hold'em"
	GamePotLimitOmaha GameType = "Pot Limit Omaha"
)

var GameTypes = []GameType{GameNLHoldem, GamePotLimitOmaha}

type TableSize string

var TableSizes = []TableSize{"10-max", "9-max", "7-max", "6-max", "5-max", "4-max", "3-max", "heads-up"}

type StackUpdate struct {
	Time      time.Time `json:"time" yaml:"time"`
	StackSize float64   `json:"stack_size" yaml:"stack_size"`
}

// Session is a single poker-playing episode. A live session has neither
// EndTime nor CashOut; a completed session has both.
type Session struct {
	ID               uuid.UUID     `json:"id" yaml:"id,omitempty"`
	UserID           uuid.UUID     `json:"user_id" yaml:"-"`
	Status           Status        `json:"status" yaml:"status"`
	GameType         GameType      `json:"game_type" yaml:"game_type"`
	SmallBlind       float64       `json:"small_blind" yaml:"small_blind"`
	BigBlind         float64       `json:"big_blind" yaml:"big_blind"`
	BuyIn            float64       `json:"buy_in" yaml:"buy_in"`
	CashOut          *float64      `json:"cash_out,omitempty" yaml:"cash_out,omitempty"`
	TableSize        TableSize     `json:"table_size" yaml:"table_size"`
	Location         string        `json:"location" yaml:"location"`
	StartTime        time.Time     `json:"start_time" yaml:"start_time"`
	EndTime          *time.Time    `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	StackSizeUpdates []StackUpdate `json:"stack_size_updates" yaml:"stack_size_updates"`
	Notes            string        `json:"notes" yaml:"notes"`
	CreatedAt        time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt        time.Time     `json:"updated_at" yaml:"-"`
}

// Draft returns the attributes a new session form starts from.
func Draft() Session {
	return Session{
		GameType:         GameNLHoldem,
		SmallBlind:       1,
		BigBlind:         2,
		TableSize:        "9-max",
		StackSizeUpdates: []StackUpdate{},
	}
}

func NewLiveSession(base Session, start time.Time) (Session, error) {
	s := base
	s.Status = StatusLive
	s.StartTime = start
	s.EndTime = nil
	s.CashOut = nil
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

func NewCompletedSession(base Session, end time.Time, cashOut float64) (Session, error) {
	s := base
	s.Status = StatusCompleted
	s.EndTime = &end
	s.CashOut = &cashOut
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

// End moves a live session to completed. The receiver is not modified.
func (s Session) End(cashOut float64, now time.Time) (Session, error) {
	if !s.IsLive() {
		return Session{}, ErrNotLive
	}
	out := s
	out.StackSizeUpdates = append([]StackUpdate(nil), s.StackSizeUpdates...)
	return NewCompletedSession(out, now, cashOut)
}

func (s Session) Validate() error {
	if !validGameType(s.GameType) {
		return invalid("unknown game type %q", s.GameType)
	}
	if !validTableSize(s.TableSize) {
		return invalid("unknown table size %q", s.TableSize)
	}
	if err := checkAmount("small blind", s.SmallBlind); err != nil {
		return err
	}
	if err := checkAmount("big blind", s.BigBlind); err != nil {
		return err
	}
	if s.BigBlind < s.SmallBlind {
		return invalid("big blind %v is below small blind %v", s.BigBlind, s.SmallBlind)
	}
	if err := checkAmount("buy-in", s.BuyIn); err != nil {
		return err
	}
	if s.StartTime.IsZero() {
		return invalid("start time is required")
	}

	var prev time.Time
	for i, u := range s.StackSizeUpdates {
		if err := checkAmount(fmt.Sprintf("stack update %d", i), u.StackSize); err != nil {
			return err
		}
		if i > 0 && u.Time.Before(prev) {
			return invalid("stack update %d is out of order", i)
		}
		prev = u.Time
	}

	switch s.Status {
	case StatusLive:
		if s.EndTime != nil || s.CashOut != nil {
			return invalid("live session must not have an end time or cash-out")
		}
	case StatusCompleted:
		if s.EndTime == nil || s.CashOut == nil {
			return invalid("completed session requires an end time and cash-out")
		}
		if s.EndTime.Before(s.StartTime) {
			return invalid("end time is before start time")
		}
		if err := checkAmount("cash-out", *s.CashOut); err != nil {
			return err
		}
	default:
		return invalid("unknown status %q", s.Status)
	}
	return nil
}

// checkAmount accepts finite, non-negative money and chip amounts.
func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid("%s must be a finite number", name)
	}
	if v < 0 {
		return invalid("%s must not be negative", name)
	}
	return nil
}

func (s Session) IsLive() bool {
	return s.Status == StatusLive
}

// IsCompleted reports whether s can be counted in statistics. A record tagged
// completed but missing its end time or cash-out is not.
func (s Session) IsCompleted() bool {
	return s.Status == StatusCompleted && s.EndTime != nil && s.CashOut != nil
}

func (s Session) Profit() (float64, bool) {
	if !s.IsCompleted() {
		return 0, false
	}
	return *s.CashOut - s.BuyIn, true
}

// RunningProfit falls back to the latest stack checkpoint while no cash-out
// has been recorded.
func (s Session) RunningProfit() float64 {
	if s.CashOut != nil {
		return *s.CashOut - s.BuyIn
	}
	if n := len(s.StackSizeUpdates); n > 0 {
		return s.StackSizeUpdates[n-1].StackSize - s.BuyIn
	}
	return 0
}

func (s Session) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return end.Sub(s.StartTime)
}

func validGameType(g GameType) bool {
	for _, v := range GameTypes {
		if v == g {
			return true
		}
	}
	return false
}

func validTableSize(t TableSize) bool {
	for _, v := range TableSizes {
		if v == t {
			return true
		}
	}
	return false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSession, fmt.Sprintf(format, args...))
}
