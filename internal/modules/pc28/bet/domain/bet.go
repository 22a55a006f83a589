// Package domain holds the bet entity. The admission gate is the only
// creator of bets; the settlement pass is the only writer of their
// terminal status and payout.
package domain

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Kind is a bet type
type Kind string

const (
	KindNumber    Kind = "number" // exact sum, bet_value 0-27
	KindBig       Kind = "big"    // sum 14-27
	KindSmall     Kind = "small"  // sum 0-13
	KindOdd       Kind = "odd"
	KindEven      Kind = "even"
	KindBigOdd    Kind = "big_odd"
	KindBigEven   Kind = "big_even"
	KindSmallOdd  Kind = "small_odd"
	KindSmallEven Kind = "small_even"
)

// Valid reports whether k is a recognized bet type
func (k Kind) Valid() bool {
	switch k {
	case KindNumber, KindBig, KindSmall, KindOdd, KindEven,
		KindBigOdd, KindBigEven, KindSmallOdd, KindSmallEven:
		return true
	}
	return false
}

// RequiresValue reports whether k needs a numeric parameter
func (k Kind) RequiresValue() bool {
	return k == KindNumber
}

// Status of a bet
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusVoid    Status = "void" // round voided, stake refunded
)

// Bet is a single admitted bet. Round reference, stake, and quoted odds
// are immutable after creation; only status and payout transition, once,
// at settlement.
type Bet struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	UserID    uint64     `gorm:"index;not null" json:"user_id"`
	RoundID   uint64     `gorm:"index;not null" json:"round_id"`
	BetType   Kind       `gorm:"size:20;not null" json:"bet_type"`
	BetValue  int        `gorm:"default:0" json:"bet_value"`
	Amount    float64    `gorm:"not null" json:"amount"`
	Odds      float64    `gorm:"not null" json:"odds"`
	Status    Status     `gorm:"size:20;default:'pending';index" json:"status"`
	WinAmount float64    `gorm:"default:0" json:"win_amount"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
	SettledAt *time.Time `json:"settled_at"`
}

// TableName overrides the table name
func (Bet) TableName() string {
	return "pc28_bets"
}

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	// Single-node deployment; a distributed setup would take the node ID
	// from configuration.
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

func generateBetID() string {
	once.Do(initSnowflake)
	return node.Generate().String()
}

// NewBet creates a pending bet with the odds quoted at acceptance
func NewBet(roundID, userID uint64, betType Kind, betValue int, amount, odds float64, at time.Time) *Bet {
	return &Bet{
		ID:        generateBetID(),
		UserID:    userID,
		RoundID:   roundID,
		BetType:   betType,
		BetValue:  betValue,
		Amount:    amount,
		Odds:      odds,
		Status:    StatusPending,
		CreatedAt: at,
	}
}

// Settle moves a pending bet to won or lost. Payout is zero unless won.
func (b *Bet) Settle(won bool, payout float64, at time.Time) error {
	if b.Status != StatusPending {
		return NewError(KindAlreadySettled, "bet %s already %s", b.ID, b.Status)
	}
	if won {
		b.Status = StatusWon
		b.WinAmount = payout
	} else {
		b.Status = StatusLost
		b.WinAmount = 0
	}
	b.SettledAt = &at
	return nil
}

// VoidRefund moves a pending bet to void with the stake as payout
func (b *Bet) VoidRefund(at time.Time) error {
	if b.Status != StatusPending {
		return NewError(KindAlreadySettled, "bet %s already %s", b.ID, b.Status)
	}
	b.Status = StatusVoid
	b.WinAmount = b.Amount
	b.SettledAt = &at
	return nil
}
