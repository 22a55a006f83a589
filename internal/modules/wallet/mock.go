package wallet

import (
	"context"
	"sync"
)

// defaultBalance is credited to accounts the mock has not seen before
const defaultBalance = 10000

// MockService implements Service with in-memory balances
type MockService struct {
	mu       sync.RWMutex
	balances map[uint64]float64
}

// NewMockService creates a new mock wallet service
func NewMockService() *MockService {
	return &MockService{balances: make(map[uint64]float64)}
}

// SetBalance sets the balance for a user (for testing)
func (s *MockService) SetBalance(userID uint64, balance float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = balance
}

func (s *MockService) balanceLocked(userID uint64) float64 {
	balance, ok := s.balances[userID]
	if !ok {
		balance = defaultBalance
		s.balances[userID] = balance
	}
	return balance
}

// Debit removes amount from the account
func (s *MockService) Debit(ctx context.Context, userID uint64, amount float64, reason string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balanceLocked(userID)
	if balance < amount {
		return balance, ErrInsufficientBalance
	}
	balance -= amount
	s.balances[userID] = balance
	return balance, nil
}

// Credit adds amount to the account
func (s *MockService) Credit(ctx context.Context, userID uint64, amount float64, reason string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balanceLocked(userID) + amount
	s.balances[userID] = balance
	return balance, nil
}

// Balance returns the current balance
func (s *MockService) Balance(ctx context.Context, userID uint64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if balance, ok := s.balances[userID]; ok {
		return balance, nil
	}
	return defaultBalance, nil
}
