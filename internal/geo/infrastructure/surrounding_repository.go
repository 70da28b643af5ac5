package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"bizit/internal/geo/domain"
	"bizit/internal/shared/infrastructure"
)

// SurroundingRepository stocke le relevé des concurrents d'un commerçant
type SurroundingRepository struct {
	infrastructure.BaseRepository
}

// NewSurroundingRepository crée un nouveau repository
func NewSurroundingRepository(db *sql.DB) *SurroundingRepository {
	return &SurroundingRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// WithTx retourne une copie du repository qui exécute dans tx
func (r *SurroundingRepository) WithTx(tx *sql.Tx) *SurroundingRepository {
	return &SurroundingRepository{BaseRepository: r.BaseRepository.WithTx(tx)}
}

// Save remplace le relevé du commerçant
func (r *SurroundingRepository) Save(ctx context.Context, userID string, s *domain.Surrounding, at time.Time) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "encode surrounding")
	}
	_, err = r.Exec(ctx, `
		INSERT INTO surroundings (user_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, userID, string(payload), at)
	return eris.Wrapf(err, "save surrounding %s", userID)
}

// Get retourne le relevé ou infrastructure.ErrNotFound
func (r *SurroundingRepository) Get(ctx context.Context, userID string) (*domain.Surrounding, error) {
	var payload string
	err := r.QueryRow(ctx, `SELECT payload FROM surroundings WHERE user_id = $1`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load surrounding %s", userID)
	}

	s := domain.NewSurrounding()
	if err := json.Unmarshal([]byte(payload), s); err != nil {
		return nil, eris.Wrapf(err, "decode surrounding %s", userID)
	}
	return s, nil
}
