package quota

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository reads quota snapshots from PostgreSQL. Snapshot rows are
// created and reset per billing period by the worker; this type never
// mutates them.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Snapshot loads the tenant's quota state for the given period. A tenant
// without a row has no configured ceiling and is unmetered.
func (r *Repository) Snapshot(ctx context.Context, tenantID int64, periodKey string) (Snapshot, error) {
	const query = `
		SELECT monthly_limit, used_amount
		FROM tenant_quotas
		WHERE company_id = $1 AND period_key = $2`

	var (
		limit *decimal.Decimal
		used  decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, query, tenantID, periodKey).Scan(&limit, &used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{PeriodKey: periodKey}, nil
		}
		return Snapshot{}, err
	}
	return Snapshot{Limit: limit, Used: used, PeriodKey: periodKey}, nil
}

// Recorder persists usage increments for metered tenants. Each increment is
// a single atomic UPDATE at the store, so concurrent requests never lose
// spend; the ceiling itself is only re-checked on the next decision, which
// bounds but does not eliminate overrun.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder constructs a recorder.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record adds amount to the tenant's used budget for the period, creating
// the period row on first use. Called by the collaborator only after the
// guarded action actually completed.
func (r *Recorder) Record(ctx context.Context, tenantID int64, amount decimal.Decimal, periodKey string) error {
	if amount.IsNegative() {
		return errors.New("quota: usage amount must not be negative")
	}
	const query = `
		INSERT INTO tenant_quotas (company_id, period_key, monthly_limit, used_amount, updated_at)
		VALUES ($1, $2, NULL, $3, $4)
		ON CONFLICT (company_id, period_key)
		DO UPDATE SET used_amount = tenant_quotas.used_amount + EXCLUDED.used_amount, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, tenantID, periodKey, amount, time.Now().UTC())
	return err
}

// RollPeriod seeds the new billing period for every tenant with a
// configured ceiling, carrying the limit forward with zero usage. Invoked
// by the scheduled worker at period boundaries; re-running it is harmless.
func (r *Repository) RollPeriod(ctx context.Context, fromKey, toKey string) (int64, error) {
	const query = `
		INSERT INTO tenant_quotas (company_id, period_key, monthly_limit, used_amount, updated_at)
		SELECT company_id, $2, monthly_limit, 0, $3
		FROM tenant_quotas
		WHERE period_key = $1 AND monthly_limit IS NOT NULL
		ON CONFLICT (company_id, period_key) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, fromKey, toKey, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SetLimit configures (or clears, with nil) a tenant's ceiling for the
// given period.
func (r *Repository) SetLimit(ctx context.Context, tenantID int64, limit *decimal.Decimal, periodKey string) error {
	const query = `
		INSERT INTO tenant_quotas (company_id, period_key, monthly_limit, used_amount, updated_at)
		VALUES ($1, $2, $3, 0, $4)
		ON CONFLICT (company_id, period_key)
		DO UPDATE SET monthly_limit = EXCLUDED.monthly_limit, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, tenantID, periodKey, limit, time.Now().UTC())
	return err
}
