package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// ParseRole accepts "customer" or "admin"; empty defaults to customer.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case "", RoleCustomer:
		return RoleCustomer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// MaxCancellations is the number of owner cancellations tolerated before suspension.
const MaxCancellations = 3

// FraudState tracks owner-initiated cancellations. It is only changed by the
// order cancellation transaction.
type FraudState struct {
	CancellationCount  int        `json:"cancellationCount"`
	LastCancellationAt *time.Time `json:"lastCancellationTime,omitempty"`
	Blocked            bool       `json:"isBlocked"`
}

// WithCancellation returns the state after one more cancellation at the given time.
func (f FraudState) WithCancellation(at time.Time) FraudState {
	f.CancellationCount++
	ts := at.UTC()
	f.LastCancellationAt = &ts
	if f.CancellationCount > MaxCancellations {
		f.Blocked = true
	}
	return f
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	FraudState
	CreatedAt time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
