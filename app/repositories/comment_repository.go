package repositories

import (
	"context"
	"database/sql"
	"errors"

	"blogpress/app/models"
)

const commentColumns = "id, text, author_id, post_id"

// SQLCommentRepository stores comments in SQLite.
type SQLCommentRepository struct {
	store *Store
}

func NewCommentRepository(store *Store) *SQLCommentRepository {
	return &SQLCommentRepository{store: store}
}

func (r *SQLCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := comment.Validate(); err != nil {
		return err
	}

	err := r.store.db.QueryRowContext(ctx,
		`INSERT INTO comments (text, author_id, post_id) VALUES (?, ?, ?) RETURNING id`,
		comment.Text, comment.AuthorID, comment.PostID,
	).Scan(&comment.ID)
	return wrapErr("create comment", err)
}

func (r *SQLCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ?`, id)
	comment, err := scanComment(row)
	if err != nil {
		return nil, wrapErr("get comment", err)
	}
	return comment, nil
}

func (r *SQLCommentRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	return r.query(ctx, "list comments by post",
		`SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY id`, postID)
}

func (r *SQLCommentRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Comment, error) {
	return r.query(ctx, "list comments by author",
		`SELECT `+commentColumns+` FROM comments WHERE author_id = ? ORDER BY id`, authorID)
}

func (r *SQLCommentRepository) DeleteByPost(ctx context.Context, postID int64) (int, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, postID)
	if err != nil {
		return 0, wrapErr("delete comments", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("delete comments", err)
	}
	return int(n), nil
}

func (r *SQLCommentRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Comment, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return comments, nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var comment models.Comment
	err := row.Scan(&comment.ID, &comment.Text, &comment.AuthorID, &comment.PostID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
