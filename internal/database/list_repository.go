package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablerolabs/tablero/internal/domain"
)

const listColumns = `id, board_id, title, position, created_at, updated_at`

// ListRepo implements domain.ListRepository backed by PostgreSQL. Saves fire
// the mutation observer after the row is committed.
type ListRepo struct {
	pool     *pgxpool.Pool
	observer domain.MutationObserver
}

func NewListRepo(pool *pgxpool.Pool) *ListRepo {
	return &ListRepo{pool: pool, observer: domain.NopObserver{}}
}

// SetObserver wires the mutation observer. Must be called before the repo
// serves requests; the observer depends on repositories, so it cannot be a
// constructor argument.
func (r *ListRepo) SetObserver(obs domain.MutationObserver) {
	r.observer = obs
}

func scanList(row pgx.Row) (*domain.List, error) {
	var l domain.List
	err := row.Scan(&l.ID, &l.BoardID, &l.Title, &l.Position, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListRepo) Create(ctx context.Context, boardID uuid.UUID, title string, position float64) (*domain.List, error) {
	list, err := scanList(r.pool.QueryRow(ctx, `
		INSERT INTO lists (board_id, title, position)
		VALUES ($1, $2, $3)
		RETURNING `+listColumns,
		boardID, title, position))
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	r.observer.ListSaved(ctx, list, true)
	return list, nil
}

func (r *ListRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.List, error) {
	return scanList(r.pool.QueryRow(ctx,
		`SELECT `+listColumns+` FROM lists WHERE id = $1`, id))
}

func (r *ListRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.List, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+listColumns+` FROM lists WHERE board_id = $1 ORDER BY position`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	var lists []*domain.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

func (r *ListRepo) Update(ctx context.Context, id uuid.UUID, title string, position float64) (*domain.List, error) {
	list, err := scanList(r.pool.QueryRow(ctx, `
		UPDATE lists
		SET title = $1, position = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+listColumns,
		title, position, id))
	if err != nil {
		return nil, err
	}

	r.observer.ListSaved(ctx, list, false)
	return list, nil
}

func (r *ListRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
