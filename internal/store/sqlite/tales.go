package sqlite

import (
	"context"
	"strings"

	"github.com/talesmith/talesmith-server/internal/domain"
	"github.com/talesmith/talesmith-server/internal/store"
)

const taleColumns = `id, title, content, age_range, topic, is_public, likes,
	author_id, author_name, created_at, updated_at`

func scanTale(scanner interface{ Scan(dest ...any) error }) (*domain.Tale, error) {
	var (
		t         domain.Tale
		ageRange  string
		isPublic  int
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(
		&t.ID,
		&t.Title,
		&t.Content,
		&ageRange,
		&t.Topic,
		&isPublic,
		&t.Likes,
		&t.AuthorID,
		&t.AuthorName,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}

	t.AgeRange = domain.AgeRange(ageRange)
	t.IsPublic = isPublic != 0
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTale inserts a new tale.
func (s *Store) CreateTale(ctx context.Context, tale *domain.Tale) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tales (`+taleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tale.ID, tale.Title, tale.Content, string(tale.AgeRange), tale.Topic,
		boolToInt(tale.IsPublic), tale.Likes, tale.AuthorID, tale.AuthorName,
		formatTime(tale.CreatedAt), formatTime(tale.UpdatedAt),
	)
	return mapErr(err)
}

// GetTale retrieves a tale by ID.
func (s *Store) GetTale(ctx context.Context, id string) (*domain.Tale, error) {
	return scanTale(s.db.QueryRowContext(ctx, `SELECT `+taleColumns+` FROM tales WHERE id = ?`, id))
}

// UpdateTale writes the author-mutable fields of a tale.
// The like counter is owned by ApplyLikeTransition and is left untouched.
func (s *Store) UpdateTale(ctx context.Context, tale *domain.Tale) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tales SET title = ?, content = ?, is_public = ?, author_name = ?, updated_at = ?
		 WHERE id = ?`,
		tale.Title, tale.Content, boolToInt(tale.IsPublic), tale.AuthorName, formatTime(tale.UpdatedAt), tale.ID,
	)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return s.db.QueryRowContext(ctx, `SELECT likes FROM tales WHERE id = ?`, tale.ID).Scan(&tale.Likes)
}

// DeleteTale removes a tale; its like edges go with it through ON DELETE CASCADE.
func (s *Store) DeleteTale(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tales WHERE id = ?`, id)
	if err != nil {
		return mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var orderBy = map[domain.TaleSort]string{
	domain.SortNewest:    "created_at DESC, id DESC",
	domain.SortOldest:    "created_at ASC, id ASC",
	domain.SortMostLiked: "likes DESC, created_at DESC, id DESC",
}

// ListTales returns one page of tales matching filter in the given order,
// along with the total number of matches.
func (s *Store) ListTales(ctx context.Context, filter store.TaleFilter, sort domain.TaleSort, page store.Page) ([]*domain.Tale, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.IsPublic != nil {
		where = append(where, "is_public = ?")
		args = append(args, boolToInt(*filter.IsPublic))
	}
	if filter.AgeRange != "" {
		where = append(where, "age_range = ?")
		args = append(args, string(filter.AgeRange))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tales`+clause, args...).Scan(&total); err != nil {
		return nil, 0, mapErr(err)
	}

	order, ok := orderBy[sort]
	if !ok {
		order = orderBy[domain.SortNewest]
	}
	limit := page.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taleColumns+` FROM tales`+clause+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, max(page.Offset, 0))...,
	)
	if err != nil {
		return nil, 0, mapErr(err)
	}
	defer rows.Close()

	tales := []*domain.Tale{}
	for rows.Next() {
		t, err := scanTale(rows)
		if err != nil {
			return nil, 0, err
		}
		tales = append(tales, t)
	}
	return tales, total, rows.Err()
}
