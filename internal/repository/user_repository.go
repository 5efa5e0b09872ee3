package repository

import (
	"context"
	"errors"
	"fmt"
	"santaAPI/internal/database"
	"santaAPI/internal/user"

	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `SELECT id, email, nickname, created_at FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	return r.findOne(ctx, `SELECT id, email, nickname, created_at FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u := &user.User{}
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Email,
		&u.Nickname,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
