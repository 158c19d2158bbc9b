package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mini-commerce/internal/domain"
	"mini-commerce/internal/repository/user"
)

type userRepo struct {
	v *view
}

var _ user.Repository = (*userRepo)(nil)

func (r *userRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	u.Email = strings.ToLower(u.Email)
	err := r.v.do(func(st *state) error {
		for _, existing := range st.users {
			if existing.Email == u.Email {
				return domain.ErrAlreadyExists
			}
		}
		u.ID = uuid.NewString()
		u.FraudState = domain.FraudState{}
		u.CreatedAt = r.v.now()
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	var out domain.User
	err := r.v.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return domain.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out domain.User
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userRepo) RecordCancellation(_ context.Context, id string, at time.Time) (domain.FraudState, error) {
	var out domain.FraudState
	err := r.v.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.ErrNotFound
		}
		u.FraudState = u.FraudState.WithCancellation(at)
		st.users[id] = u
		out = u.FraudState
		return nil
	})
	return out, err
}
