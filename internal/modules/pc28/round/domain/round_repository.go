package domain

import "context"

// RoundRepository persists round history. The storage collaborator owns
// durability; the usecase treats persistence failures as non-fatal.
type RoundRepository interface {
	Create(ctx context.Context, round *Round) error
	Update(ctx context.Context, round *Round) error

	// ListRecentSettled returns the most recent settled rounds, newest first.
	ListRecentSettled(ctx context.Context, limit int) ([]*Round, error)

	// CountActive returns how many stored rounds are open or pending.
	// More than one is an invariant violation.
	CountActive(ctx context.Context) (int, error)
}
