package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"bizit/internal/shared/infrastructure"
	"bizit/internal/solution/domain"
)

// SolutionRepository repository des recommandations
type SolutionRepository struct {
	infrastructure.BaseRepository
}

// NewSolutionRepository crée un nouveau repository de recommandations
func NewSolutionRepository(db *sql.DB) *SolutionRepository {
	return &SolutionRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// WithTx retourne une copie du repository qui exécute dans tx
func (r *SolutionRepository) WithTx(tx *sql.Tx) *SolutionRepository {
	return &SolutionRepository{BaseRepository: r.BaseRepository.WithTx(tx)}
}

// ReplaceAll supprime les recommandations du commerçant puis insère drafts.
// À appeler dans une transaction.
func (r *SolutionRepository) ReplaceAll(ctx context.Context, userID string, drafts []domain.Draft, at time.Time) ([]domain.Solution, error) {
	if _, err := r.Exec(ctx, `DELETE FROM solutions WHERE user_id = $1`, userID); err != nil {
		return nil, eris.Wrapf(err, "clear solutions %s", userID)
	}

	saved := make([]domain.Solution, 0, len(drafts))
	for i, d := range drafts {
		s := domain.Solution{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     d.Title,
			Solution:  d.Solution,
			Position:  i,
			CreatedAt: at,
		}
		_, err := r.Exec(ctx, `
			INSERT INTO solutions (id, user_id, title, solution, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.ID, s.UserID, s.Title, s.Solution, s.Position, s.CreatedAt)
		if err != nil {
			return nil, eris.Wrapf(err, "insert solution %d", i)
		}
		saved = append(saved, s)
	}
	return saved, nil
}

// List retourne les recommandations les plus récentes d'abord
func (r *SolutionRepository) List(ctx context.Context, userID string, limit int) ([]domain.Solution, error) {
	rows, err := r.Query(ctx, `
		SELECT id, user_id, title, solution, position, created_at
		FROM solutions
		WHERE user_id = $1
		ORDER BY created_at DESC, position ASC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "query solutions")
	}
	defer rows.Close()

	solutions := make([]domain.Solution, 0)
	for rows.Next() {
		var s domain.Solution
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Solution, &s.Position, &s.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "scan solution")
		}
		solutions = append(solutions, s)
	}
	return solutions, eris.Wrap(rows.Err(), "iterate solutions")
}
