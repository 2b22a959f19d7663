package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
)

const entryColumns = `id, customer_id, transaction_date, transaction_type, amount,
	       description, reference_id, created_sequence, created_at, updated_at`

// EntryRepository implements usecase.EntryRepository on PostgreSQL.
// created_sequence is a BIGSERIAL assigned by the database on insert; it
// breaks ordering ties between entries sharing a transaction date.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

// Put persists a new entry within a transaction and fills in the
// database-assigned CreatedSequence.
func (r *EntryRepository) Put(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries (
			id, customer_id, transaction_date, transaction_type, amount,
			description, reference_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_sequence
	`

	return pgxTx.QueryRow(ctx, query,
		entry.ID,
		entry.CustomerID,
		entry.TransactionDate,
		string(entry.Type),
		entry.Amount,
		entry.Description,
		nullableText(entry.ReferenceID),
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.CreatedSequence)
}

// Get retrieves an entry by ID.
func (r *EntryRepository) Get(ctx context.Context, id string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	return scanEntry(r.pool.QueryRow(ctx, query, id))
}

// GetTx retrieves an entry by ID within a transaction.
func (r *EntryRepository) GetTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE id = $1`

	return scanEntry(pgxTx.QueryRow(ctx, query, id))
}

// ListByCustomer retrieves all entries for a customer.
func (r *EntryRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE customer_id = $1`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// ListByCustomerTx retrieves all entries for a customer within a
// transaction, so a recompute sees the row set as of the held lock.
func (r *EntryRepository) ListByCustomerTx(ctx context.Context, tx usecase.Transaction, customerID string) ([]*domain.Entry, error) {
	pgxTx := tx.(*Tx).PgxTx()
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE customer_id = $1`

	rows, err := pgxTx.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Update rewrites the mutable fields of an entry. CreatedSequence and
// CustomerID never change after insert.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE ledger_entries
		SET transaction_date = $2,
		    transaction_type = $3,
		    amount = $4,
		    description = $5,
		    updated_at = $6
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.TransactionDate,
		string(entry.Type),
		entry.Amount,
		entry.Description,
		entry.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// ListCustomerIDs returns every customer with at least one entry.
func (r *EntryRepository) ListCustomerIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT customer_id FROM ledger_entries`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var entry domain.Entry
	var entryType string
	var referenceID *string

	err := row.Scan(
		&entry.ID,
		&entry.CustomerID,
		&entry.TransactionDate,
		&entryType,
		&entry.Amount,
		&entry.Description,
		&referenceID,
		&entry.CreatedSequence,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	entry.Type = domain.EntryType(entryType)
	if referenceID != nil {
		entry.ReferenceID = *referenceID
	}

	return &entry, nil
}

func collectEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
