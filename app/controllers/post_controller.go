package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"blogpress/app/auth"
	"blogpress/app/avatar"
	"blogpress/app/models"
)

// PostService is the subset of services.PostService the handlers use.
type PostService interface {
	ListPosts(ctx context.Context) ([]*models.Post, error)
	GetPost(ctx context.Context, id int64) (*models.Post, error)
	CreatePost(ctx context.Context, identity models.Identity, in models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, identity models.Identity, id int64, update models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, identity models.Identity, id int64) error
	ListAuthorPosts(ctx context.Context, userID int64) (*models.User, []*models.Post, error)
}

// CommentService adds comments under a post and lists a user's comments.
type CommentService interface {
	AddComment(ctx context.Context, identity models.Identity, postID int64, text string) (*models.Comment, error)
	ListAuthorComments(ctx context.Context, userID int64) ([]*models.Comment, error)
}

// PostController handles HTTP requests for blog posts and their comments
type PostController struct {
	*Renderer
	posts      PostService
	comments   CommentService
	avatars    avatar.Resolver
	avatarSize int
}

func NewPostController(rd *Renderer, posts PostService, comments CommentService, avatars avatar.Resolver, avatarSize int) *PostController {
	return &PostController{
		Renderer:   rd,
		posts:      posts,
		comments:   comments,
		avatars:    avatars,
		avatarSize: avatarSize,
	}
}

// Index lists every post
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListPosts(r.Context())
	if err != nil {
		pc.serverError(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, "index", &PageData{Posts: posts})
}

// Show displays a post with its comments. POST adds a comment.
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	if r.Method == http.MethodPost {
		pc.addComment(w, r, id)
		return
	}
	pc.showPost(w, r, id, http.StatusOK, nil)
}

func (pc *PostController) addComment(w http.ResponseWriter, r *http.Request, id int64) {
	if err := r.ParseForm(); err != nil {
		pc.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	text := r.PostFormValue("comment_text")

	_, err := pc.comments.AddComment(r.Context(), auth.IdentityFrom(r.Context()), id, text)
	if fields, ok := fieldErrors(err); ok {
		pc.showPost(w, r, id, http.StatusUnprocessableEntity, &PageData{
			Form:   map[string]string{"comment_text": text},
			Errors: fields,
		})
		return
	}
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	pc.redirect(w, r, fmt.Sprintf("/post/%d", id))
}

func (pc *PostController) showPost(w http.ResponseWriter, r *http.Request, id int64, status int, data *PageData) {
	post, err := pc.posts.GetPost(r.Context(), id)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	if data == nil {
		data = &PageData{}
	}
	data.Title = post.Title
	data.Post = post
	data.Avatars = pc.commentAvatars(r.Context(), post.Comments)
	pc.render(w, r, status, "post", data)
}

// commentAvatars resolves one image URL per comment author.
func (pc *PostController) commentAvatars(ctx context.Context, comments []*models.Comment) map[int64]string {
	urls := make(map[int64]string)
	for _, comment := range comments {
		if comment.Author == nil {
			continue
		}
		if _, done := urls[comment.AuthorID]; done {
			continue
		}
		urls[comment.AuthorID] = pc.avatars.URL(ctx, comment.Author.Email, pc.avatarSize)
	}
	return urls
}

// Author shows a user's posts and comments
func (pc *PostController) Author(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	author, posts, err := pc.posts.ListAuthorPosts(r.Context(), id)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}
	comments, err := pc.comments.ListAuthorComments(r.Context(), id)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	pc.render(w, r, http.StatusOK, "author", &PageData{
		Title:    author.Name,
		Author:   author,
		Posts:    posts,
		Comments: comments,
	})
}

// New shows and processes the create post form
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	data := &PageData{Title: "New Post", FormAction: "/new-post"}
	if r.Method == http.MethodGet {
		pc.render(w, r, http.StatusOK, "make-post", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		pc.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	in := postInput(r)

	_, err := pc.posts.CreatePost(r.Context(), auth.IdentityFrom(r.Context()), in)
	if fields, ok := fieldErrors(err); ok {
		data.Form = postForm(in)
		data.Errors = fields
		pc.render(w, r, http.StatusUnprocessableEntity, "make-post", data)
		return
	}
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	pc.redirect(w, r, "/")
}

// Edit shows a pre-filled form and applies the submitted changes
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}
	data := &PageData{Title: "Edit Post", FormAction: fmt.Sprintf("/edit-post/%d", id), IsEdit: true}

	if r.Method == http.MethodGet {
		post, err := pc.posts.GetPost(r.Context(), id)
		if err != nil {
			pc.respondError(w, r, err)
			return
		}
		data.Form = map[string]string{
			"title":     post.Title,
			"subtitle":  post.Subtitle,
			"img_url":   post.ImgURL,
			"body":      post.Body,
			"author_id": strconv.FormatInt(post.AuthorID, 10),
		}
		pc.render(w, r, http.StatusOK, "make-post", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		pc.renderError(w, r, http.StatusBadRequest, "Invalid form submission.")
		return
	}
	in := postInput(r)
	data.Form = postForm(in)
	data.Form["author_id"] = strings.TrimSpace(r.PostFormValue("author_id"))

	update := models.UpdateFromInput(in)
	if raw := data.Form["author_id"]; raw != "" {
		authorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || authorID <= 0 {
			data.Errors = map[string]string{"author_id": "author_id must be a positive number"}
			pc.render(w, r, http.StatusUnprocessableEntity, "make-post", data)
			return
		}
		update.AuthorID = &authorID
	}

	_, err = pc.posts.UpdatePost(r.Context(), auth.IdentityFrom(r.Context()), id, update)
	if fields, ok := fieldErrors(err); ok {
		data.Errors = fields
		pc.render(w, r, http.StatusUnprocessableEntity, "make-post", data)
		return
	}
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	pc.redirect(w, r, fmt.Sprintf("/post/%d", id))
}

// Delete removes a post and its comments
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := routeID(r)
	if err != nil {
		pc.respondError(w, r, err)
		return
	}

	if err := pc.posts.DeletePost(r.Context(), auth.IdentityFrom(r.Context()), id); err != nil {
		pc.respondError(w, r, err)
		return
	}
	pc.redirect(w, r, "/")
}

func postInput(r *http.Request) models.PostInput {
	in := models.PostInput{
		Title:    r.PostFormValue("title"),
		Subtitle: r.PostFormValue("subtitle"),
		ImgURL:   r.PostFormValue("img_url"),
		Body:     r.PostFormValue("body"),
	}
	in.Trim()
	return in
}

func postForm(in models.PostInput) map[string]string {
	return map[string]string{
		"title":    in.Title,
		"subtitle": in.Subtitle,
		"img_url":  in.ImgURL,
		"body":     in.Body,
	}
}
