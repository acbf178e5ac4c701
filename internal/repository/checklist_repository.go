package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skylog/api/internal/models"
)

var ErrChecklistNotFound = errors.New("checklist not found")

type ChecklistRepository struct {
	pool *pgxpool.Pool
}

func NewChecklistRepository(pool *pgxpool.Pool) *ChecklistRepository {
	return &ChecklistRepository{pool: pool}
}

func (r *ChecklistRepository) Create(ctx context.Context, checklist models.Checklist) error {
	const query = `
		INSERT INTO checklists (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, checklist.ID, checklist.UserID, checklist.Name)
	return err
}

func (r *ChecklistRepository) GetByID(ctx context.Context, userID string, id string) (models.Checklist, error) {
	const query = `
		SELECT id, user_id, name, created_at, updated_at
		FROM checklists WHERE id = $1 AND user_id = $2
	`
	row := r.pool.QueryRow(ctx, query, id, userID)
	var checklist models.Checklist
	if err := row.Scan(
		&checklist.ID,
		&checklist.UserID,
		&checklist.Name,
		&checklist.CreatedAt,
		&checklist.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Checklist{}, ErrChecklistNotFound
		}
		return models.Checklist{}, err
	}
	return checklist, nil
}

func (r *ChecklistRepository) ListByUser(ctx context.Context, userID string) ([]models.Checklist, error) {
	const query = `
		SELECT id, user_id, name, created_at, updated_at
		FROM checklists
		WHERE user_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checklists []models.Checklist
	for rows.Next() {
		var checklist models.Checklist
		if err := rows.Scan(
			&checklist.ID,
			&checklist.UserID,
			&checklist.Name,
			&checklist.CreatedAt,
			&checklist.UpdatedAt,
		); err != nil {
			return nil, err
		}
		checklists = append(checklists, checklist)
	}
	return checklists, rows.Err()
}

func (r *ChecklistRepository) Rename(ctx context.Context, userID string, id string, name string) error {
	const query = `
		UPDATE checklists SET name = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, userID, name)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrChecklistNotFound
	}
	return nil
}

func (r *ChecklistRepository) Delete(ctx context.Context, userID string, id string) error {
	const query = `DELETE FROM checklists WHERE id = $1 AND user_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrChecklistNotFound
	}
	return nil
}

// ReplaceItems swaps a checklist's items wholesale inside one transaction.
// The checklist row is matched with the owning user first so another
// user's checklist cannot be written through this path.
func (r *ChecklistRepository) ReplaceItems(ctx context.Context, userID string, checklistID string, items []models.ChecklistItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var owner string
	if err := tx.QueryRow(ctx,
		`SELECT user_id FROM checklists WHERE id = $1 AND user_id = $2`,
		checklistID, userID,
	).Scan(&owner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrChecklistNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM checklist_items WHERE checklist_id = $1`, checklistID); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := tx.Exec(ctx,
			`INSERT INTO checklist_items (id, checklist_id, position, text, done)
			 VALUES ($1, $2, $3, $4, $5)`,
			item.ID, checklistID, item.Position, item.Text, item.Done,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE checklists SET updated_at = NOW() WHERE id = $1`, checklistID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ChecklistRepository) ListItems(ctx context.Context, checklistID string) ([]models.ChecklistItem, error) {
	const query = `
		SELECT id, checklist_id, position, text, done
		FROM checklist_items
		WHERE checklist_id = $1
		ORDER BY position
	`
	rows, err := r.pool.Query(ctx, query, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ChecklistItem
	for rows.Next() {
		var item models.ChecklistItem
		if err := rows.Scan(
			&item.ID,
			&item.ChecklistID,
			&item.Position,
			&item.Text,
			&item.Done,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
