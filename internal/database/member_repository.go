package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablerolabs/tablero/internal/domain"
)

// MemberRepo implements domain.MemberRepository backed by PostgreSQL.
// Membership rows are joined with users so callers always see the username
// and email alongside the role.
type MemberRepo struct {
	pool     *pgxpool.Pool
	observer domain.MutationObserver
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool, observer: domain.NopObserver{}}
}

// SetObserver wires the mutation observer. Must be called before the repo
// serves requests; the observer depends on repositories, so it cannot be a
// constructor argument.
func (r *MemberRepo) SetObserver(obs domain.MutationObserver) {
	r.observer = obs
}

const memberSelect = `
	SELECT bm.id, bm.board_id, bm.user_id, u.username, u.email, bm.role, bm.joined_at
	FROM board_members bm
	JOIN users u ON u.id = bm.user_id`

func (r *MemberRepo) Add(ctx context.Context, boardID, userID uuid.UUID, role domain.Role) (*domain.BoardMember, error) {
	var m domain.BoardMember
	err := r.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO board_members (board_id, user_id, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (board_id, user_id) DO UPDATE SET role = board_members.role
			RETURNING id, board_id, user_id, role, joined_at
		)
		SELECT ins.id, ins.board_id, ins.user_id, u.username, u.email, ins.role, ins.joined_at
		FROM ins JOIN users u ON u.id = ins.user_id
	`, boardID, userID, role).Scan(&m.ID, &m.BoardID, &m.UserID, &m.Username, &m.Email, &m.Role, &m.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add board member: %w", err)
	}

	r.observer.MemberAdded(ctx, &m)
	return &m, nil
}

func (r *MemberRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.BoardMember, error) {
	rows, err := r.pool.Query(ctx, memberSelect+`
		WHERE bm.board_id = $1
		ORDER BY bm.role, bm.joined_at`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}
	defer rows.Close()

	var members []*domain.BoardMember
	for rows.Next() {
		var m domain.BoardMember
		if err := rows.Scan(&m.ID, &m.BoardID, &m.UserID, &m.Username, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}
