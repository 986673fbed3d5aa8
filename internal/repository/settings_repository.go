package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Platform fee applied when no settings row exists yet.
const defaultServiceFeePercent = 10.0

// SettingsRepo reads system-wide settings. Currently only the
// platform service-charge percentage lives here.
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// ServiceFeePercent returns the platform fee percentage applied to a
// booking request's base price. Falls back to the default when the
// settings table is empty.
func (r *SettingsRepo) ServiceFeePercent(ctx context.Context) (float64, error) {
	var pct float64
	err := r.DB.QueryRowContext(ctx,
		`SELECT service_fee_percent FROM settings ORDER BY id LIMIT 1`).Scan(&pct)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultServiceFeePercent, nil
	}
	if err != nil {
		return 0, err
	}
	return pct, nil
}
