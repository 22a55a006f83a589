// Package domain holds the round entity and its status transitions. The
// round usecase is the only writer of round status.
package domain

import (
	"time"

	"github.com/frankieli/pc28_game/internal/modules/pc28/draw"
)

// Status of a game round
type Status string

const (
	StatusPending  Status = "pending"  // created, not yet accepting bets
	StatusOpen     Status = "open"     // accepting bets
	StatusClosed   Status = "closed"   // betting over, outcome not derived
	StatusSettling Status = "settling" // bets being evaluated
	StatusSettled  Status = "settled"  // terminal
	StatusVoid     Status = "void"     // terminal, administratively cancelled
)

// IsTerminal reports whether a status admits no further transitions
func (s Status) IsTerminal() bool {
	return s == StatusSettled || s == StatusVoid
}

// Round is a single game round. Status, result digits, and SettledAt are
// written only through the transition methods; the result is write-once.
type Round struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	IssueNumber string     `gorm:"uniqueIndex;size:50;not null" json:"issue_number"`
	KenoData    string     `gorm:"type:text" json:"keno_data"`
	ResultA     int        `gorm:"default:0" json:"result_a"`
	ResultB     int        `gorm:"default:0" json:"result_b"`
	ResultC     int        `gorm:"default:0" json:"result_c"`
	Sum         int        `gorm:"default:0" json:"sum"`
	OpenTime    time.Time  `gorm:"not null" json:"open_time"`
	CloseTime   time.Time  `gorm:"not null" json:"close_time"`
	Status      Status     `gorm:"size:20;default:'pending';index" json:"status"`
	VoidReason  string     `gorm:"size:255" json:"void_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SettledAt   *time.Time `json:"settled_at"`
}

// TableName overrides the table name
func (Round) TableName() string {
	return "pc28_rounds"
}

// NewRound creates an open round with the given duration
func NewRound(id uint64, issueNumber string, openTime time.Time, duration time.Duration) *Round {
	return &Round{
		ID:          id,
		IssueNumber: issueNumber,
		OpenTime:    openTime,
		CloseTime:   openTime.Add(duration),
		Status:      StatusOpen,
		CreatedAt:   openTime,
	}
}

// Close transitions open -> closed
func (r *Round) Close() error {
	if r.Status != StatusOpen {
		return NewError(KindInvalidState, "cannot close round %s in status %s", r.IssueNumber, r.Status)
	}
	r.Status = StatusClosed
	return nil
}

// BeginSettle transitions closed -> settling and records the derived
// outcome. The outcome is write-once: settling a round that already has
// one is an invalid transition.
func (r *Round) BeginSettle(kenoJSON string, result draw.Result) error {
	if r.Status != StatusClosed {
		return NewError(KindInvalidState, "cannot settle round %s in status %s", r.IssueNumber, r.Status)
	}
	r.Status = StatusSettling
	r.KenoData = kenoJSON
	r.ResultA = result.A
	r.ResultB = result.B
	r.ResultC = result.C
	r.Sum = result.Sum
	return nil
}

// FinishSettle transitions settling -> settled
func (r *Round) FinishSettle(at time.Time) error {
	if r.Status != StatusSettling {
		return NewError(KindInvalidState, "cannot finish settling round %s in status %s", r.IssueNumber, r.Status)
	}
	r.Status = StatusSettled
	r.SettledAt = &at
	return nil
}

// Void transitions any non-terminal status -> void. Irreversible.
func (r *Round) Void(reason string) error {
	if r.Status.IsTerminal() {
		return NewError(KindInvalidState, "cannot void round %s in status %s", r.IssueNumber, r.Status)
	}
	r.Status = StatusVoid
	r.VoidReason = reason
	return nil
}

// Result returns the derived outcome
func (r *Round) Result() draw.Result {
	return draw.Result{A: r.ResultA, B: r.ResultB, C: r.ResultC, Sum: r.Sum}
}

// Snapshot is the read-only round shape pushed to subscribers on connect
// and on every status change.
type Snapshot struct {
	ID          uint64    `json:"id"`
	IssueNumber string    `json:"issue_number"`
	Status      Status    `json:"status"`
	ResultA     int       `json:"result_a"`
	ResultB     int       `json:"result_b"`
	ResultC     int       `json:"result_c"`
	Sum         int       `json:"sum"`
	OpenTime    time.Time `json:"open_time"`
	CloseTime   time.Time `json:"close_time"`
}

// Snapshot returns a copy safe to hand out without the round lock
func (r *Round) Snapshot() Snapshot {
	return Snapshot{
		ID:          r.ID,
		IssueNumber: r.IssueNumber,
		Status:      r.Status,
		ResultA:     r.ResultA,
		ResultB:     r.ResultB,
		ResultC:     r.ResultC,
		Sum:         r.Sum,
		OpenTime:    r.OpenTime,
		CloseTime:   r.CloseTime,
	}
}
