package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
)

// CustomerBalanceRepository implements usecase.CustomerBalanceRepository.
// The customer_balances table is a projection over ledger_entries: it is
// never the source of truth and can be rebuilt from the entries at any
// time.
type CustomerBalanceRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerBalanceRepository creates a new CustomerBalanceRepository.
func NewCustomerBalanceRepository(pool *pgxpool.Pool) *CustomerBalanceRepository {
	return &CustomerBalanceRepository{pool: pool}
}

// Get retrieves the projected balance for a customer.
func (r *CustomerBalanceRepository) Get(ctx context.Context, customerID string) (*domain.CustomerBalance, error) {
	query := `
		SELECT customer_id, current_balance, updated_at
		FROM customer_balances
		WHERE customer_id = $1
	`

	var balance domain.CustomerBalance
	err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&balance.CustomerID,
		&balance.CurrentBalance,
		&balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	return &balance, nil
}

// GetForUpdate locks the customer's projection row with FOR UPDATE,
// inserting a zero row first if the customer has never had one. Every
// ledger mutation takes this lock, which serializes writes per customer.
func (r *CustomerBalanceRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, customerID string) (*domain.CustomerBalance, error) {
	pgxTx := tx.(*Tx).PgxTx()

	insert := `
		INSERT INTO customer_balances (customer_id, current_balance, updated_at)
		VALUES ($1, 0, now())
		ON CONFLICT (customer_id) DO NOTHING
	`
	if _, err := pgxTx.Exec(ctx, insert, customerID); err != nil {
		return nil, err
	}

	query := `
		SELECT customer_id, current_balance, updated_at
		FROM customer_balances
		WHERE customer_id = $1
		FOR UPDATE
	`

	var balance domain.CustomerBalance
	err := pgxTx.QueryRow(ctx, query, customerID).Scan(
		&balance.CustomerID,
		&balance.CurrentBalance,
		&balance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &balance, nil
}

// Set writes the projected balance for a customer within a transaction.
func (r *CustomerBalanceRepository) Set(ctx context.Context, tx usecase.Transaction, customerID string, balance int64, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO customer_balances (customer_id, current_balance, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id) DO UPDATE
		SET current_balance = EXCLUDED.current_balance,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := pgxTx.Exec(ctx, query, customerID, balance, updatedAt)

	return err
}

// ListDebtors returns customers with a nonzero projected balance, largest
// receivable first.
func (r *CustomerBalanceRepository) ListDebtors(ctx context.Context, limit, offset int) ([]*domain.CustomerBalance, error) {
	query := `
		SELECT customer_id, current_balance, updated_at
		FROM customer_balances
		WHERE current_balance <> 0
		ORDER BY current_balance DESC, customer_id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debtors []*domain.CustomerBalance
	for rows.Next() {
		var balance domain.CustomerBalance
		if err := rows.Scan(&balance.CustomerID, &balance.CurrentBalance, &balance.UpdatedAt); err != nil {
			return nil, err
		}
		debtors = append(debtors, &balance)
	}

	return debtors, rows.Err()
}

// RebuildAll rewrites every projection row from the entry table in a
// single transaction. Customers whose entries have all been deleted are
// zeroed rather than removed, so their history of having had a row stays
// visible. Returns the number of customers with entries.
func (r *CustomerBalanceRepository) RebuildAll(ctx context.Context) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE customer_balances SET current_balance = 0, updated_at = now()`); err != nil {
		return 0, err
	}

	upsert := `
		INSERT INTO customer_balances (customer_id, current_balance, updated_at)
		SELECT customer_id, COALESCE(SUM(amount), 0), now()
		FROM ledger_entries
		GROUP BY customer_id
		ON CONFLICT (customer_id) DO UPDATE
		SET current_balance = EXCLUDED.current_balance,
		    updated_at = EXCLUDED.updated_at
	`

	tag, err := tx.Exec(ctx, upsert)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
