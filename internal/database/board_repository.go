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

const boardColumns = `id, name, description, owner_id, created_at, updated_at`

// BoardRepo implements domain.BoardRepository backed by PostgreSQL. Saves
// and deletes fire the mutation observer after the row change.
type BoardRepo struct {
	pool     *pgxpool.Pool
	observer domain.MutationObserver
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool, observer: domain.NopObserver{}}
}

// SetObserver wires the mutation observer. Must be called before the repo
// serves requests; the observer depends on repositories, so it cannot be a
// constructor argument.
func (r *BoardRepo) SetObserver(obs domain.MutationObserver) {
	r.observer = obs
}

func scanBoard(row pgx.Row) (*domain.Board, error) {
	var b domain.Board
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BoardRepo) Create(ctx context.Context, name, description string, ownerID uuid.UUID) (*domain.Board, error) {
	board, err := scanBoard(r.pool.QueryRow(ctx, `
		INSERT INTO boards (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING `+boardColumns,
		name, description, ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	r.observer.BoardSaved(ctx, board, true)
	return board, nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return scanBoard(r.pool.QueryRow(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = $1`, id))
}

func (r *BoardRepo) List(ctx context.Context) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+boardColumns+` FROM boards ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []*domain.Board
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

func (r *BoardRepo) Update(ctx context.Context, id uuid.UUID, name, description string) (*domain.Board, error) {
	board, err := scanBoard(r.pool.QueryRow(ctx, `
		UPDATE boards
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+boardColumns,
		name, description, id))
	if err != nil {
		return nil, err
	}

	r.observer.BoardSaved(ctx, board, false)
	return board, nil
}

func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	board, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	r.observer.BoardDeleted(ctx, board)
	return nil
}
