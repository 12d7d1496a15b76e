package repository

import (
	"context"
	"errors"

	"github.com/avdeenkov/flightbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.QueryRow(ctx, `INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		user.Email, user.PasswordHash, user.FullName, string(user.Role)).
		Scan(&user.ID, &user.CreatedAt)
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT id, email, password_hash, full_name, role, created_at FROM users WHERE email=$1`, email))
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT id, email, password_hash, full_name, role, created_at FROM users WHERE id=$1`, id))
}

func (r *PGUserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
