package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/store"
)

// IsLiked reports whether userID currently likes taleID.
func (s *Store) IsLiked(ctx context.Context, userID, taleID string) (bool, error) {
	var liked bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tale_likes WHERE user_id = ? AND tale_id = ?)`, userID, taleID,
	).Scan(&liked)
	return liked, mapErr(err)
}

// LikedTaleIDs returns the IDs of every tale userID likes.
func (s *Store) LikedTaleIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tale_id FROM tale_likes WHERE user_id = ? ORDER BY tale_id`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyLikeTransition adds or removes the (user, tale) edge and adjusts the
// tale's counter in one immediate transaction. The guard sees the state read
// in that transaction.
func (s *Store) ApplyLikeTransition(ctx context.Context, tr store.LikeTransition) (result *domain.Tale, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin like transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tale, err := scanTale(tx.QueryRowContext(ctx, `SELECT `+taleColumns+` FROM tales WHERE id = ?`, tr.TaleID))
	if err != nil {
		return nil, err
	}

	var liked bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tale_likes WHERE user_id = ? AND tale_id = ?)`, tr.UserID, tr.TaleID,
	).Scan(&liked); err != nil {
		return nil, err
	}

	if tr.Guard != nil {
		if err = tr.Guard(tale, liked); err != nil {
			return nil, err
		}
	}

	switch tr.Kind {
	case store.LikeAdd:
		if liked {
			return nil, store.ErrAlreadyExists.WithMessage("like already recorded")
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO tale_likes (user_id, tale_id, created_at) VALUES (?, ?, ?)`,
			tr.UserID, tr.TaleID, formatTime(time.Now()),
		); err != nil {
			return nil, mapErr(err)
		}
		tale.Likes++

	case store.LikeRemove:
		if !liked {
			return nil, store.ErrNotFound.WithMessage("like not found")
		}
		if _, err = tx.ExecContext(ctx,
			`DELETE FROM tale_likes WHERE user_id = ? AND tale_id = ?`, tr.UserID, tr.TaleID,
		); err != nil {
			return nil, err
		}
		tale.Likes = max(tale.Likes-1, 0)

	default:
		return nil, fmt.Errorf("unknown like transition %d", tr.Kind)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE tales SET likes = ? WHERE id = ?`, tale.Likes, tale.ID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit like transaction: %w", err)
	}
	return tale, nil
}
