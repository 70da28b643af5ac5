package infrastructure

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"bizit/internal/shared/infrastructure"
	"bizit/internal/user/domain"
)

// UserRepository repository des comptes
type UserRepository struct {
	infrastructure.BaseRepository
}

// NewUserRepository crée un nouveau repository de comptes
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// Create insère un compte; un email existant retourne domain.ErrEmailTaken
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	res, err := r.Exec(ctx, `
		INSERT INTO users (user_email, password_hash, biz_name, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_email) DO NOTHING
	`, u.Email, u.PasswordHash, u.BizName, u.UserName, u.CreatedAt)
	if err != nil {
		return eris.Wrapf(err, "create user %s", u.Email)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return domain.ErrEmailTaken
	}
	return nil
}

// GetByEmail retourne le compte ou infrastructure.ErrNotFound
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.QueryRow(ctx, `
		SELECT user_email, password_hash, biz_name, user_name, created_at
		FROM users
		WHERE user_email = $1
	`, email).Scan(&u.Email, &u.PasswordHash, &u.BizName, &u.UserName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load user %s", email)
	}
	return &u, nil
}
