package mock

import (
	"context"
	"sort"
	"sync"

	"blogpress/app/models"
	"blogpress/app/repositories"
)

// UserRepository is an in-memory repositories.UserRepository.
type UserRepository struct {
	users  map[int64]*models.User
	nextID int64
	mutex  sync.RWMutex
}

// PostRepository is an in-memory repositories.PostRepository.
// Deletes cascade to the comment repository it was built with.
type PostRepository struct {
	posts    map[int64]*models.Post
	nextID   int64
	comments *CommentRepository
	mutex    sync.RWMutex

	// Err, when set, is returned by every write.
	Err error
}

// CommentRepository is an in-memory repositories.CommentRepository.
type CommentRepository struct {
	comments map[int64]*models.Comment
	nextID   int64
	mutex    sync.RWMutex
}

// Repositories bundles a linked set of in-memory repositories.
type Repositories struct {
	Users    *UserRepository
	Posts    *PostRepository
	Comments *CommentRepository
}

func New() *Repositories {
	comments := NewCommentRepository()
	return &Repositories{
		Users:    NewUserRepository(),
		Posts:    NewPostRepository(comments),
		Comments: comments,
	}
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]*models.User), nextID: 1}
}

func NewPostRepository(comments *CommentRepository) *PostRepository {
	return &PostRepository{posts: make(map[int64]*models.Post), nextID: 1, comments: comments}
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{comments: make(map[int64]*models.Comment), nextID: 1}
}

// UserRepository implementation
func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.insert(user)
}

func (m *UserRepository) CreateClaimingAdmin(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	user.Role = models.RoleAdmin
	for _, u := range m.users {
		if u.Role == models.RoleAdmin {
			user.Role = models.RoleReader
			break
		}
	}
	return m.insert(user)
}

func (m *UserRepository) insert(user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleReader
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return &repositories.PersistenceError{Op: "create user", Err: repositories.ErrDuplicateEmail}
		}
	}

	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	email = models.NormalizeEmail(email)
	for _, user := range m.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) Count(ctx context.Context) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.users), nil
}

func (m *UserRepository) CountByRole(ctx context.Context, role models.Role) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, user := range m.users {
		if user.Role == role {
			n++
		}
	}
	return n, nil
}

// PostRepository implementation
func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if err := m.checkTitle(post); err != nil {
		return err
	}

	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyPost(post), nil
}

func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	return m.filter(func(*models.Post) bool { return true }), nil
}

func (m *PostRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	return m.filter(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	if err := m.checkTitle(post); err != nil {
		return err
	}
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int64) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	if m.comments != nil {
		if _, err := m.comments.DeleteByPost(ctx, id); err != nil {
			return err
		}
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) checkTitle(post *models.Post) error {
	for _, p := range m.posts {
		if p.Title == post.Title && p.ID != post.ID {
			return &repositories.PersistenceError{Op: "save post", Err: repositories.ErrDuplicateTitle}
		}
	}
	return nil
}

func (m *PostRepository) filter(keep func(*models.Post) bool) []*models.Post {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	posts := make([]*models.Post, 0, len(m.posts))
	for _, post := range m.posts {
		if keep(post) {
			posts = append(posts, copyPost(post))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts
}

func copyPost(post *models.Post) *models.Post {
	out := *post
	out.Author = nil
	out.Comments = nil
	return &out
}

// CommentRepository implementation
func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	m.nextID++
	stored := *comment
	stored.Author, stored.Post = nil, nil
	m.comments[comment.ID] = &stored
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	out := *comment
	return &out, nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.PostID == postID }), nil
}

func (m *CommentRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.AuthorID == authorID }), nil
}

func (m *CommentRepository) DeleteByPost(ctx context.Context, postID int64) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	n := 0
	for id, comment := range m.comments {
		if comment.PostID == postID {
			delete(m.comments, id)
			n++
		}
	}
	return n, nil
}

func (m *CommentRepository) filter(keep func(*models.Comment) bool) []*models.Comment {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comments := make([]*models.Comment, 0)
	for _, comment := range m.comments {
		if keep(comment) {
			out := *comment
			comments = append(comments, &out)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments
}

var (
	_ repositories.UserRepository    = (*UserRepository)(nil)
	_ repositories.PostRepository    = (*PostRepository)(nil)
	_ repositories.CommentRepository = (*CommentRepository)(nil)
)
