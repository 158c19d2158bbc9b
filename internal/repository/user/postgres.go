package user

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"mini-commerce/internal/db"
	"mini-commerce/internal/domain"
)

const userColumns = `id::text, name, email, password_hash, role, cancellation_count, last_cancellation_at, is_blocked, created_at`

type postgresRepo struct {
	db     db.DBTX
	logger logrus.FieldLogger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(conn db.DBTX, logger logrus.FieldLogger) Repository {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &postgresRepo{db: conn, logger: logger.WithField("repo", "user")}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	const q = `
INSERT INTO users (name, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns
	return r.scanUser(r.db.QueryRow(ctx, q, u.Name, strings.ToLower(u.Email), u.PasswordHash, string(u.Role)))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.db.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *postgresRepo) RecordCancellation(ctx context.Context, id string, at time.Time) (domain.FraudState, error) {
	const q = `
UPDATE users
SET cancellation_count = cancellation_count + 1,
    last_cancellation_at = $2,
    is_blocked = is_blocked OR cancellation_count + 1 > $3
WHERE id = $1
RETURNING cancellation_count, last_cancellation_at, is_blocked
`
	var st domain.FraudState
	err := r.db.QueryRow(ctx, q, id, at.UTC(), domain.MaxCancellations).Scan(&st.CancellationCount, &st.LastCancellationAt, &st.Blocked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FraudState{}, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("user_id", id).Error("record cancellation")
		return domain.FraudState{}, err
	}
	return st, nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.CancellationCount,
		&u.LastCancellationAt,
		&u.Blocked,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).Error("scan user")
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
