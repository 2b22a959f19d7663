package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mycelium/receivables/internal/domain"
	"github.com/mycelium/receivables/internal/usecase"
)

// AuditRepository implements audit log persistence
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create inserts a new audit log entry within a transaction, so the trail
// commits atomically with the mutation it records
func (r *AuditRepository) Create(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	var beforeStateJSON, afterStateJSON []byte
	var err error

	if log.BeforeState != nil {
		beforeStateJSON, err = json.Marshal(log.BeforeState)
		if err != nil {
			return err
		}
	}

	if log.AfterState != nil {
		afterStateJSON, err = json.Marshal(log.AfterState)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (
			id, actor, action, customer_id, entry_id,
			before_state, after_state, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = pgxTx.Exec(ctx, query,
		log.ID,
		string(log.Actor),
		log.Action,
		log.CustomerID,
		nullableText(log.EntryID),
		beforeStateJSON,
		afterStateJSON,
		log.CreatedAt,
	)

	return err
}

// List retrieves audit logs with filtering
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, actor, action, customer_id, entry_id,
		       before_state, after_state, created_at
		FROM audit_logs
		WHERE 1=1
	`
	args := []any{}
	argPos := 1

	if filter.Actor != "" {
		query += fmt.Sprintf(` AND actor = $%d`, argPos)
		args = append(args, string(filter.Actor))
		argPos++
	}

	if filter.Action != "" {
		query += fmt.Sprintf(` AND action = $%d`, argPos)
		args = append(args, filter.Action)
		argPos++
	}

	if filter.CustomerID != "" {
		query += fmt.Sprintf(` AND customer_id = $%d`, argPos)
		args = append(args, filter.CustomerID)
		argPos++
	}

	if filter.EntryID != "" {
		query += fmt.Sprintf(` AND entry_id = $%d`, argPos)
		args = append(args, filter.EntryID)
		argPos++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, argPos)
		args = append(args, *filter.StartDate)
		argPos++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(` AND created_at <= $%d`, argPos)
		args = append(args, *filter.EndDate)
		argPos++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argPos)
		args = append(args, filter.Limit)
		argPos++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var actor string
		var entryID *string
		var beforeStateJSON, afterStateJSON []byte

		err := rows.Scan(
			&log.ID,
			&actor,
			&log.Action,
			&log.CustomerID,
			&entryID,
			&beforeStateJSON,
			&afterStateJSON,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		log.Actor = domain.Actor(actor)
		if entryID != nil {
			log.EntryID = *entryID
		}

		if beforeStateJSON != nil {
			_ = json.Unmarshal(beforeStateJSON, &log.BeforeState)
		}

		if afterStateJSON != nil {
			_ = json.Unmarshal(afterStateJSON, &log.AfterState)
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// GetByEntry retrieves all audit logs for a specific ledger entry
func (r *AuditRepository) GetByEntry(ctx context.Context, entryID string) ([]*domain.AuditLog, error) {
	return r.List(ctx, domain.AuditFilter{EntryID: entryID})
}
