package domain

import rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"

// Broadcaster delivers settlement events, both broadcast and per-user
type Broadcaster interface {
	Broadcast(event rounddomain.Event)
	SendToUser(userID uint64, event rounddomain.Event)
}

// SettledPayload is the payload of a personal bet_settled event
type SettledPayload struct {
	BetID     string  `json:"bet_id"`
	RoundID   uint64  `json:"round_id"`
	BetType   Kind    `json:"bet_type"`
	Amount    float64 `json:"amount"`
	WinAmount float64 `json:"win_amount"`
	Status    Status  `json:"status"`
}
