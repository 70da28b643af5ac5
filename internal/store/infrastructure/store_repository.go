package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"

	"bizit/internal/shared/infrastructure"
	"bizit/internal/store/domain"
)

// StoreRepository repository des fiches magasin et de leurs ventes mensuelles
type StoreRepository struct {
	infrastructure.BaseRepository
}

// NewStoreRepository crée un nouveau repository de fiches magasin
func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{
		BaseRepository: infrastructure.NewBaseRepository(db),
	}
}

// WithTx retourne une copie du repository qui exécute dans tx
func (r *StoreRepository) WithTx(tx *sql.Tx) *StoreRepository {
	return &StoreRepository{BaseRepository: r.BaseRepository.WithTx(tx)}
}

// Upsert enregistre la fiche (une par utilisateur) et remplace ses ventes.
// Retourne true si la fiche vient d'être créée. À appeler dans une transaction.
func (r *StoreRepository) Upsert(ctx context.Context, p *domain.StoreProfile) (bool, error) {
	var exists int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM stores WHERE user_id = $1`, p.UserID).Scan(&exists)
	if err != nil {
		return false, eris.Wrap(err, "check existing store")
	}

	extras, err := json.Marshal(p.Extras)
	if err != nil {
		return false, eris.Wrap(err, "encode store extras")
	}

	_, err = r.Exec(ctx, `
		INSERT INTO stores (user_id, sector_code, sector_name, sector_code_cs, address, detail_address,
		                    lat, lng, admin_code, admin_dong_name, extras, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			sector_code = excluded.sector_code,
			sector_name = excluded.sector_name,
			sector_code_cs = excluded.sector_code_cs,
			address = excluded.address,
			detail_address = excluded.detail_address,
			lat = excluded.lat,
			lng = excluded.lng,
			admin_code = excluded.admin_code,
			admin_dong_name = excluded.admin_dong_name,
			extras = excluded.extras,
			updated_at = excluded.updated_at
	`,
		p.UserID, p.SectorCode, p.SectorName, p.SectorCodeCS,
		p.Location.Address, p.Location.DetailAddress,
		nullFloat(p.Location.Lat), nullFloat(p.Location.Lng),
		p.Location.AdminCode, p.Location.AdminDongName,
		string(extras), p.UpdatedAt,
	)
	if err != nil {
		return false, eris.Wrapf(err, "upsert store %s", p.UserID)
	}

	if _, err := r.Exec(ctx, `DELETE FROM sales_logs WHERE user_id = $1`, p.UserID); err != nil {
		return false, eris.Wrap(err, "clear sales logs")
	}
	for _, log := range p.SalesLogs {
		var details sql.NullString
		if log.Details != nil {
			raw, err := json.Marshal(log.Details)
			if err != nil {
				return false, eris.Wrapf(err, "encode details %s", log.YearMonth)
			}
			details = sql.NullString{String: string(raw), Valid: true}
		}
		_, err := r.Exec(ctx,
			`INSERT INTO sales_logs (user_id, ym, revenue, profit, details) VALUES ($1, $2, $3, $4, $5)`,
			p.UserID, log.YearMonth, log.Revenue, log.Profit, details,
		)
		if err != nil {
			return false, eris.Wrapf(err, "insert sales log %s", log.YearMonth)
		}
	}

	return exists == 0, nil
}

// Get charge la fiche et ses ventes triées par mois
func (r *StoreRepository) Get(ctx context.Context, userID string) (*domain.StoreProfile, error) {
	var (
		p        domain.StoreProfile
		lat, lng sql.NullFloat64
		extras   string
	)
	err := r.QueryRow(ctx, `
		SELECT user_id, sector_code, sector_name, sector_code_cs, address, detail_address,
		       lat, lng, admin_code, admin_dong_name, extras, updated_at
		FROM stores
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID, &p.SectorCode, &p.SectorName, &p.SectorCodeCS,
		&p.Location.Address, &p.Location.DetailAddress,
		&lat, &lng, &p.Location.AdminCode, &p.Location.AdminDongName,
		&extras, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStoreNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "load store %s", userID)
	}
	if lat.Valid {
		p.Location.Lat = &lat.Float64
	}
	if lng.Valid {
		p.Location.Lng = &lng.Float64
	}
	if extras != "" {
		if err := json.Unmarshal([]byte(extras), &p.Extras); err != nil {
			return nil, eris.Wrapf(err, "decode store extras %s", userID)
		}
	}

	logs, err := r.salesLogs(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.SalesLogs = logs
	return &p, nil
}

func (r *StoreRepository) salesLogs(ctx context.Context, userID string) ([]domain.SalesLog, error) {
	rows, err := r.Query(ctx, `
		SELECT ym, revenue, profit, details
		FROM sales_logs
		WHERE user_id = $1
		ORDER BY ym
	`, userID)
	if err != nil {
		return nil, eris.Wrap(err, "query sales logs")
	}
	defer rows.Close()

	logs := make([]domain.SalesLog, 0)
	for rows.Next() {
		var (
			log     domain.SalesLog
			details sql.NullString
		)
		if err := rows.Scan(&log.YearMonth, &log.Revenue, &log.Profit, &details); err != nil {
			return nil, eris.Wrap(err, "scan sales log")
		}
		if details.Valid && details.String != "" {
			log.Details = &domain.SalesLogDetails{}
			if err := json.Unmarshal([]byte(details.String), log.Details); err != nil {
				return nil, eris.Wrapf(err, "decode details %s", log.YearMonth)
			}
		}
		logs = append(logs, log)
	}
	return logs, eris.Wrap(rows.Err(), "iterate sales logs")
}

// ListUserIDs liste les commerçants ayant une fiche
func (r *StoreRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.Query(ctx, `SELECT user_id FROM stores ORDER BY user_id`)
	if err != nil {
		return nil, eris.Wrap(err, "list stores")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "scan store id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "iterate stores")
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
