package services

import (
	"context"
	"fmt"

	"blogpress/app/logging"
	"blogpress/app/models"
	"blogpress/app/repositories"
	"blogpress/app/validation"
)

// CommentService handles business logic for comments
type CommentService struct {
	comments repositories.CommentRepository
	posts    repositories.PostRepository
	users    repositories.UserRepository
	gate     Gate
}

// NewCommentService creates a new CommentService
func NewCommentService(comments repositories.CommentRepository, posts repositories.PostRepository, users repositories.UserRepository, gate Gate) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		users:    users,
		gate:     gate,
	}
}

// AddComment attaches the caller's comment to a post. Guests are rejected
// before the post is looked up.
func (s *CommentService) AddComment(ctx context.Context, identity models.Identity, postID int64, text string) (*models.Comment, error) {
	if err := s.gate.RequireCommenter(identity); err != nil {
		return nil, err
	}

	if err := validation.Struct(models.CommentInput{Text: text}); err != nil {
		return nil, err
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Text: text}
	if err := comment.SetAuthor(identity.User); err != nil {
		return nil, err
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	logging.Ctx(ctx).Info().Int64("comment_id", comment.ID).Int64("post_id", postID).Msg("comment added")
	return comment, nil
}

// ListAuthorComments returns a user's comments, each with the post it belongs to
func (s *CommentService) ListAuthorComments(ctx context.Context, userID int64) ([]*models.Comment, error) {
	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments by author: %w", err)
	}

	posts := make(map[int64]*models.Post)
	for _, comment := range comments {
		comment.Author = author
		post, ok := posts[comment.PostID]
		if !ok {
			if post, err = s.posts.GetByID(ctx, comment.PostID); err != nil {
				return nil, fmt.Errorf("failed to get post %d: %w", comment.PostID, err)
			}
			posts[comment.PostID] = post
		}
		comment.Post = post
	}
	return comments, nil
}
