package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hisab/hisab/internal/models"
	"github.com/hisab/hisab/internal/storage"
)

// CreateGroup persists a new group and its member list.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Phase == "" {
		group.Phase = models.PhaseActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, owner_id, phase, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.OwnerID, string(group.Phase), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i, userID := range group.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, position) VALUES (?, ?, ?)",
			group.ID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group with its member list, in join order.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var phase string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, owner_id, phase, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.OwnerID, &phase, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Phase = models.GroupPhase(phase)

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		group.Members = append(group.Members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return group, nil
}

// flipToSettlement moves the phase from active to settlement. The WHERE
// clause makes the flip a compare-and-set: of two racing settle requests
// exactly one sees an affected row, the other gets ErrAlreadySettled. It
// runs inside the settlement transaction, so a failed run rolls it back.
func flipToSettlement(ctx context.Context, q querier, groupID string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE groups SET phase = ? WHERE id = ? AND phase = ?",
		string(models.PhaseSettlement), groupID, string(models.PhaseActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update group phase: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		// Either the group does not exist or it is already settled.
		var phase string
		err := q.QueryRowContext(ctx, "SELECT phase FROM groups WHERE id = ?", groupID).Scan(&phase)
		if err == sql.ErrNoRows {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check group phase: %w", err)
		}
		return fmt.Errorf("group %s: %w", groupID, storage.ErrAlreadySettled)
	}
	return nil
}
