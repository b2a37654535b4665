package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogpress/app/logging"
	"blogpress/app/models"
	"blogpress/app/repositories"
	"blogpress/app/validation"
)

// PostService handles business logic for blog posts
type PostService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	users    repositories.UserRepository
	gate     Gate
	now      func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, comments repositories.CommentRepository, users repositories.UserRepository, gate Gate) *PostService {
	return &PostService{
		posts:    posts,
		comments: comments,
		users:    users,
		gate:     gate,
		now:      time.Now,
	}
}

// ListPosts returns every post in insertion order with its author loaded
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	authors := newAuthorCache(s.users)
	for _, post := range posts {
		author, err := authors.get(ctx, post.AuthorID)
		if err != nil {
			return nil, err
		}
		post.Author = author
	}
	return posts, nil
}

// GetPost returns a post with its author and its comments, each with their author
func (s *PostService) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	authors := newAuthorCache(s.users)
	if post.Author, err = authors.get(ctx, post.AuthorID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	for _, comment := range comments {
		if comment.Author, err = authors.get(ctx, comment.AuthorID); err != nil {
			return nil, err
		}
		if err := post.AddComment(comment); err != nil {
			return nil, err
		}
	}

	return post, nil
}

// CreatePost publishes a new post authored by the caller, who must be an admin
func (s *PostService) CreatePost(ctx context.Context, identity models.Identity, in models.PostInput) (*models.Post, error) {
	if err := s.gate.RequireAdmin(identity); err != nil {
		return nil, err
	}

	in.Trim()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Body:     in.Body,
		ImgURL:   in.ImgURL,
	}
	if err := post.SetAuthor(identity.User); err != nil {
		return nil, err
	}
	post.BeforeCreate(s.now())

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, titleError(err)
	}

	logging.Ctx(ctx).Info().Int64("post_id", post.ID).Int64("author_id", post.AuthorID).Msg("post created")
	return post, nil
}

// UpdatePost applies a partial edit. The post's date never changes.
func (s *PostService) UpdatePost(ctx context.Context, identity models.Identity, id int64, update models.PostUpdate) (*models.Post, error) {
	if err := s.gate.RequireAdmin(identity); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var author *models.User
	if update.AuthorID != nil {
		author, err = s.users.GetByID(ctx, *update.AuthorID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, validation.NewFieldError("author_id", "author_id must reference an existing user")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get author: %w", err)
		}
	}

	post.Apply(update)
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, titleError(err)
	}

	if author == nil {
		author, err = s.users.GetByID(ctx, post.AuthorID)
		if err != nil {
			return nil, fmt.Errorf("failed to get author: %w", err)
		}
	}
	post.Author = author

	logging.Ctx(ctx).Info().Int64("post_id", post.ID).Msg("post updated")
	return post, nil
}

// DeletePost removes a post and all its comments
func (s *PostService) DeletePost(ctx context.Context, identity models.Identity, id int64) error {
	if err := s.gate.RequireAdmin(identity); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().Int64("post_id", id).Msg("post deleted")
	return nil
}

// ListAuthorPosts returns a user and the posts they wrote
func (s *PostService) ListAuthorPosts(ctx context.Context, userID int64) (*models.User, []*models.Post, error) {
	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	posts, err := s.posts.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	for _, post := range posts {
		post.Author = author
	}
	return author, posts, nil
}

// titleError turns a title collision into a field error the form can show.
func titleError(err error) error {
	if errors.Is(err, repositories.ErrDuplicateTitle) {
		verr := validation.NewFieldError("title", "a post with this title already exists")
		return errors.Join(verr, err)
	}
	return err
}
