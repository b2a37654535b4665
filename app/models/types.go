package models

import "time"

// Role is the permission level stored on a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

// DateLayout is the display format stamped on a post when it is created.
const DateLayout = "January 02, 2006"

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" validate:"required,notblank,max=250"`
	Email        string    `json:"email" validate:"required,email,max=250"`
	PasswordHash string    `json:"-" validate:"required"`
	Role         Role      `json:"role" validate:"required,oneof=admin reader"`
	CreatedAt    time.Time `json:"created_at"`
}

// Post represents a blog post with comments.
type Post struct {
	ID       int64      `json:"id"`
	Title    string     `json:"title" validate:"required,max=250"`
	Subtitle string     `json:"subtitle" validate:"required,max=250"`
	Date     string     `json:"date" validate:"required,max=250"`
	Body     string     `json:"body" validate:"required,notblank"`
	ImgURL   string     `json:"img_url" validate:"required,url,max=250"`
	AuthorID int64      `json:"author_id" validate:"required,gt=0"`
	Author   *User      `json:"author,omitempty" validate:"-"`
	Comments []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment represents a comment on a blog post.
type Comment struct {
	ID       int64  `json:"id"`
	Text     string `json:"text" validate:"required,notblank"`
	AuthorID int64  `json:"author_id" validate:"required,gt=0"`
	PostID   int64  `json:"post_id" validate:"required,gt=0"`
	Author   *User  `json:"author,omitempty" validate:"-"`
	Post     *Post  `json:"-" validate:"-"`
}
