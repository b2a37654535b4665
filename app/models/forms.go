package models

import "strings"

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string `form:"name" validate:"required,notblank,max=250"`
	Email    string `form:"email" validate:"required,email,max=250"`
	Password string `form:"password" validate:"required"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// PostInput is the create/edit post form.
type PostInput struct {
	Title    string `form:"title" validate:"required,max=250"`
	Subtitle string `form:"subtitle" validate:"required,max=250"`
	ImgURL   string `form:"img_url" validate:"required,url,max=250"`
	Body     string `form:"body" validate:"required,notblank"`
}

// Trim strips surrounding whitespace from the single-line fields. Body is
// kept verbatim.
func (in *PostInput) Trim() {
	in.Title = strings.TrimSpace(in.Title)
	in.Subtitle = strings.TrimSpace(in.Subtitle)
	in.ImgURL = strings.TrimSpace(in.ImgURL)
}

// CommentInput is the comment form shown under a post.
type CommentInput struct {
	Text string `form:"comment_text" validate:"required,notblank"`
}

// PostUpdate is a partial edit; nil fields are left unchanged.
type PostUpdate struct {
	Title    *string
	Subtitle *string
	Body     *string
	ImgURL   *string
	AuthorID *int64
}

// UpdateFromInput builds an update that overwrites every editable field.
func UpdateFromInput(in PostInput) PostUpdate {
	return PostUpdate{
		Title:    &in.Title,
		Subtitle: &in.Subtitle,
		Body:     &in.Body,
		ImgURL:   &in.ImgURL,
	}
}

// IsEmpty reports whether the update changes nothing.
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Subtitle == nil && u.Body == nil && u.ImgURL == nil && u.AuthorID == nil
}
