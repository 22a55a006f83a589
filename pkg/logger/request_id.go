package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

var counter uint64

// GenerateRequestID generates a unique request ID.
// Format: timestamp-counter-random, e.g. 20231201102830-000001-a3f2b1
func GenerateRequestID() string {
	timestamp := time.Now().Format("20060102150405")
	count := atomic.AddUint64(&counter, 1)

	randomBytes := make([]byte, 3)
	_, _ = rand.Read(randomBytes)
	randomHex := hex.EncodeToString(randomBytes)

	return fmt.Sprintf("%s-%06d-%s", timestamp, count, randomHex)
}

// WebSocketContext builds a request-scoped context for a WebSocket upgrade,
// reusing the X-Request-ID header when the client supplies one.
func WebSocketContext(r *http.Request) context.Context {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = GenerateRequestID()
	}
	return WithRequestID(r.Context(), requestID)
}
