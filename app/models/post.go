package models

import (
	"errors"
	"time"

	"blogpress/app/validation"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	return validation.Struct(p)
}

// BeforeCreate stamps the display date if it has not been set
func (p *Post) BeforeCreate(now time.Time) {
	if p.Date == "" {
		p.Date = now.Format(DateLayout)
	}
}

// SetAuthor sets the author and updates the AuthorID
func (p *Post) SetAuthor(author *User) error {
	if author == nil {
		return errors.New("author cannot be nil")
	}

	p.Author = author
	p.AuthorID = author.ID
	return nil
}

// AddComment adds a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	comment.Post = p
	p.Comments = append(p.Comments, comment)
	return nil
}

// Apply copies every non-nil field of the update onto the post. Date is never touched.
func (p *Post) Apply(update PostUpdate) {
	if update.Title != nil {
		p.Title = *update.Title
	}
	if update.Subtitle != nil {
		p.Subtitle = *update.Subtitle
	}
	if update.Body != nil {
		p.Body = *update.Body
	}
	if update.ImgURL != nil {
		p.ImgURL = *update.ImgURL
	}
	if update.AuthorID != nil {
		p.AuthorID = *update.AuthorID
		if p.Author != nil && p.Author.ID != *update.AuthorID {
			p.Author = nil
		}
	}
}
