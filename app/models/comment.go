package models

import (
	"errors"

	"blogpress/app/validation"
)

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validation.Struct(c)
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.Post = post
	c.PostID = post.ID
	return nil
}

// SetAuthor sets the author and updates the AuthorID
func (c *Comment) SetAuthor(author *User) error {
	if author == nil {
		return errors.New("author cannot be nil")
	}

	c.Author = author
	c.AuthorID = author.ID
	return nil
}
