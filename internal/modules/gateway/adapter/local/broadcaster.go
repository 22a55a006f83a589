// Package local provides in-process adapters for the gateway module.
package local

import (
	"encoding/json"

	"github.com/frankieli/pc28_game/internal/modules/gateway/ws"
	rounddomain "github.com/frankieli/pc28_game/internal/modules/pc28/round/domain"
	"github.com/frankieli/pc28_game/pkg/logger"
)

// Broadcaster marshals game events and hands them to the WebSocket hub.
// It implements the round and bet modules' broadcaster interfaces.
type Broadcaster struct {
	hub *ws.Hub
}

// NewBroadcaster creates a broadcaster backed by hub
func NewBroadcaster(hub *ws.Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

func (b *Broadcaster) encode(event rounddomain.Event) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorGlobal().Err(err).Str("type", event.Type).Msg("Failed to encode event")
		return nil
	}
	return data
}

// Broadcast fans an event out to every subscriber
func (b *Broadcaster) Broadcast(event rounddomain.Event) {
	if data := b.encode(event); data != nil {
		b.hub.Broadcast(data)
	}
}

// SendToUser delivers an event to one user's connection
func (b *Broadcaster) SendToUser(userID uint64, event rounddomain.Event) {
	if data := b.encode(event); data != nil {
		b.hub.SendToUser(userID, data)
	}
}
