package repositories

import (
	"context"
	"database/sql"
	"errors"

	"blogpress/app/models"
)

const postColumns = "id, title, subtitle, date, body, img_url, author_id"

// SQLPostRepository stores posts in SQLite.
type SQLPostRepository struct {
	store *Store
}

func NewPostRepository(store *Store) *SQLPostRepository {
	return &SQLPostRepository{store: store}
}

func (r *SQLPostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	err := r.store.db.QueryRowContext(ctx,
		`INSERT INTO blog_posts (title, subtitle, date, body, img_url, author_id) VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		post.Title, post.Subtitle, post.Date, post.Body, post.ImgURL, post.AuthorID,
	).Scan(&post.ID)
	return wrapErr("create post", err)
}

func (r *SQLPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	post, err := scanPost(row)
	if err != nil {
		return nil, wrapErr("get post", err)
	}
	return post, nil
}

func (r *SQLPostRepository) List(ctx context.Context) ([]*models.Post, error) {
	return r.query(ctx, "list posts", `SELECT `+postColumns+` FROM blog_posts ORDER BY id`)
}

func (r *SQLPostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return r.query(ctx, "list posts by author",
		`SELECT `+postColumns+` FROM blog_posts WHERE author_id = ? ORDER BY id`, authorID)
}

func (r *SQLPostRepository) Update(ctx context.Context, post *models.Post) error {
	if err := post.Validate(); err != nil {
		return err
	}

	res, err := r.store.db.ExecContext(ctx,
		`UPDATE blog_posts SET title = ?, subtitle = ?, date = ?, body = ?, img_url = ?, author_id = ? WHERE id = ?`,
		post.Title, post.Subtitle, post.Date, post.Body, post.ImgURL, post.AuthorID, post.ID,
	)
	if err != nil {
		return wrapErr("update post", err)
	}
	return wrapErr("update post", requireAffected(res))
}

func (r *SQLPostRepository) Delete(ctx context.Context, id int64) error {
	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
	return wrapErr("delete post", err)
}

func (r *SQLPostRepository) query(ctx context.Context, op, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return posts, nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.Title, &post.Subtitle, &post.Date, &post.Body, &post.ImgURL, &post.AuthorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
