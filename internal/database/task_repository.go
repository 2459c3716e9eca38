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

const taskColumns = `id, list_id, title, description, position, due_date, priority, created_at, updated_at`

// TaskRepo implements domain.TaskRepository backed by PostgreSQL. Assignees
// live in a join table and are loaded with every task. Saves fire the
// mutation observer after the transaction commits; Delete fires it after
// removal with the last known row state.
type TaskRepo struct {
	pool     *pgxpool.Pool
	observer domain.MutationObserver
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool, observer: domain.NopObserver{}}
}

// SetObserver wires the mutation observer. Must be called before the repo
// serves requests; the observer depends on repositories, so it cannot be a
// constructor argument.
func (r *TaskRepo) SetObserver(obs domain.MutationObserver) {
	r.observer = obs
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.ListID, &t.Title, &t.Description, &t.Position, &t.DueDate, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) loadAssignees(ctx context.Context, taskID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.username
		FROM task_assignees ta
		JOIN users u ON u.id = ta.user_id
		WHERE ta.task_id = $1`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignees: %w", err)
	}
	defer rows.Close()

	assignees := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var username string
		if err := rows.Scan(&id, &username); err != nil {
			return nil, err
		}
		assignees[id] = username
	}
	return assignees, rows.Err()
}

func (r *TaskRepo) Create(ctx context.Context, listID uuid.UUID, title, description string, position float64, priority domain.Priority, assignees []uuid.UUID) (*domain.Task, error) {
	if priority == "" {
		priority = domain.PriorityMedium
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	task, err := scanTask(tx.QueryRow(ctx, `
		INSERT INTO tasks (list_id, title, description, position, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+taskColumns,
		listID, title, description, position, priority))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	for _, userID := range assignees {
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, task.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to assign task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if task.Assignees, err = r.loadAssignees(ctx, task.ID); err != nil {
		return nil, err
	}

	r.observer.TaskSaved(ctx, task, true)
	return task, nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if task.Assignees, err = r.loadAssignees(ctx, id); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepo) ListByList(ctx context.Context, listID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE list_id = $1 ORDER BY position`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, task := range tasks {
		if task.Assignees, err = r.loadAssignees(ctx, task.ID); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, id uuid.UUID, upd domain.TaskUpdate) (*domain.Task, error) {
	if upd.Priority == "" {
		upd.Priority = domain.PriorityMedium
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	task, err := scanTask(tx.QueryRow(ctx, `
		UPDATE tasks
		SET list_id = $1, title = $2, description = $3, position = $4, due_date = $5, priority = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+taskColumns,
		upd.ListID, upd.Title, upd.Description, upd.Position, upd.DueDate, upd.Priority, id))
	if err != nil {
		return nil, err
	}

	// Replace the assignment set wholesale; last write wins.
	if _, err := tx.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, id); err != nil {
		return nil, fmt.Errorf("failed to clear assignees: %w", err)
	}
	for _, userID := range upd.Assignees {
		if _, err := tx.Exec(ctx, `
			INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, id, userID); err != nil {
			return nil, fmt.Errorf("failed to assign task: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if task.Assignees, err = r.loadAssignees(ctx, id); err != nil {
		return nil, err
	}

	r.observer.TaskSaved(ctx, task, false)
	return task, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	task, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	r.observer.TaskDeleted(ctx, task)
	return nil
}
