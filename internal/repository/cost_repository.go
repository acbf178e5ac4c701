package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skylog/api/internal/models"
)

var (
	ErrCostEntryNotFound = errors.New("cost entry not found")
	ErrReceiptNotFound   = errors.New("receipt not found")
)

type CostRepository struct {
	pool *pgxpool.Pool
}

func NewCostRepository(pool *pgxpool.Pool) *CostRepository {
	return &CostRepository{pool: pool}
}

func (r *CostRepository) Create(ctx context.Context, entry models.CostEntry) error {
	const query = `
		INSERT INTO cost_entries (
			id, user_id, category, amount_cents, incurred_on, note, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Category,
		entry.AmountCents,
		entry.IncurredOn,
		entry.Note,
	)
	return err
}

func (r *CostRepository) GetByID(ctx context.Context, userID string, id string) (models.CostEntry, error) {
	const query = `
		SELECT id, user_id, category, amount_cents, incurred_on, note, created_at
		FROM cost_entries WHERE id = $1 AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, userID)
	var entry models.CostEntry
	if err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Category,
		&entry.AmountCents,
		&entry.IncurredOn,
		&entry.Note,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CostEntry{}, ErrCostEntryNotFound
		}
		return models.CostEntry{}, err
	}
	return entry, nil
}

func (r *CostRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.CostEntry, error) {
	const query = `
		SELECT id, user_id, category, amount_cents, incurred_on, note, created_at
		FROM cost_entries
		WHERE user_id = $1
		ORDER BY incurred_on DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.CostEntry
	for rows.Next() {
		var entry models.CostEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Category,
			&entry.AmountCents,
			&entry.IncurredOn,
			&entry.Note,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *CostRepository) Delete(ctx context.Context, userID string, id string) error {
	const query = `DELETE FROM cost_entries WHERE id = $1 AND user_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCostEntryNotFound
	}
	return nil
}

func (r *CostRepository) CreateReceipt(ctx context.Context, receipt models.Receipt) error {
	const query = `
		INSERT INTO receipts (
			id, cost_entry_id, user_id, bucket, object_key, content_type,
			size_bytes, checksum, signature, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		receipt.ID,
		receipt.CostEntryID,
		receipt.UserID,
		receipt.Bucket,
		receipt.ObjectKey,
		receipt.ContentType,
		receipt.SizeBytes,
		receipt.Checksum,
		receipt.Signature,
	)
	return err
}

func (r *CostRepository) ListReceipts(ctx context.Context, userID string, costEntryID string) ([]models.Receipt, error) {
	const query = `
		SELECT id, cost_entry_id, user_id, bucket, object_key, content_type,
		       size_bytes, checksum, signature, created_at
		FROM receipts
		WHERE user_id = $1 AND cost_entry_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, costEntryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []models.Receipt
	for rows.Next() {
		var receipt models.Receipt
		if err := rows.Scan(
			&receipt.ID,
			&receipt.CostEntryID,
			&receipt.UserID,
			&receipt.Bucket,
			&receipt.ObjectKey,
			&receipt.ContentType,
			&receipt.SizeBytes,
			&receipt.Checksum,
			&receipt.Signature,
			&receipt.CreatedAt,
		); err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, rows.Err()
}
