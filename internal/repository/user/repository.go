package user

import (
	"context"
	"time"

	"mini-commerce/internal/domain"
)

// Repository persists and fetches users. Emails are matched case-insensitively.
type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// RecordCancellation counts one owner cancellation and blocks the account
	// once the count exceeds domain.MaxCancellations. The update is atomic.
	RecordCancellation(ctx context.Context, id string, at time.Time) (domain.FraudState, error)
}
