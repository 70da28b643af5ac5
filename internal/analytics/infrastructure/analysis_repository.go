package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"bizit/internal/analytics/domain"
	"bizit/internal/shared/infrastructure"
)

// AnalysisRepository stocke l'artefact d'analyse courant (une ligne par commerçant)
type AnalysisRepository struct {
	infrastructure.BaseRepository
}

// NewAnalysisRepository crée un nouveau repository d'analyses
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// WithTx retourne une copie du repository qui exécute dans tx
func (r *AnalysisRepository) WithTx(tx *sql.Tx) *AnalysisRepository {
	return &AnalysisRepository{BaseRepository: r.BaseRepository.WithTx(tx)}
}

// Upsert remplace entièrement l'artefact du commerçant
func (r *AnalysisRepository) Upsert(ctx context.Context, userID string, m *domain.ComparativeMetrics, createdAt time.Time) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "encode analysis")
	}
	_, err = r.Exec(ctx, `
		INSERT INTO analyses (user_id, target_ym, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			target_ym = excluded.target_ym,
			payload = excluded.payload,
			created_at = excluded.created_at
	`, userID, m.TargetYearMonth, string(payload), createdAt)
	return eris.Wrapf(err, "upsert analysis %s", userID)
}

// Get retourne l'artefact courant ou infrastructure.ErrNotFound
func (r *AnalysisRepository) Get(ctx context.Context, userID string) (*domain.ComparativeMetrics, error) {
	var payload string
	err := r.QueryRow(ctx, `SELECT payload FROM analyses WHERE user_id = $1`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load analysis %s", userID)
	}

	var m domain.ComparativeMetrics
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return nil, eris.Wrapf(err, "decode analysis %s", userID)
	}
	return &m, nil
}

// Count nombre d'artefacts stockés
func (r *AnalysisRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n)
	return n, eris.Wrap(err, "count analyses")
}
