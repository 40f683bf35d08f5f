// Package mock provides in-memory implementations of the repository
// interfaces for service and controller tests. Records are copied in and out
// so callers never alias stored state.
package mock

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"blogsite/app/models"
	"blogsite/app/repositories"

	"github.com/google/uuid"
)

type PostRepository struct {
	posts  map[int]*models.Post
	nextID int
	mutex  sync.RWMutex
}

type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	mutex    sync.RWMutex
}

type CategoryRepository struct {
	categories map[int]*models.Category
	nextID     int
	mutex      sync.RWMutex
}

type UserRepository struct {
	users  map[int]*models.User
	nextID int
	hooks  []repositories.UserHook
	mutex  sync.RWMutex
}

type ProfileRepository struct {
	profiles map[int]*models.Profile
	mutex    sync.RWMutex
}

type TokenRepository struct {
	tokens map[string]int
	mutex  sync.RWMutex
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
	}
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[int]*models.Comment),
		nextID:   1,
	}
}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{
		categories: make(map[int]*models.Category),
		nextID:     1,
	}
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[int]*models.User),
		nextID: 1,
	}
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{profiles: make(map[int]*models.Profile)}
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]int)}
}

// PostRepository implementation
func (m *PostRepository) Create(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.slugTaken(post, 0) {
		return repositories.ErrDuplicateSlug
	}
	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyPost(post), nil
}

func (m *PostRepository) GetByDateSlug(date time.Time, slug string) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	day := models.DateKey(date)
	for _, post := range m.posts {
		if post.Slug == slug && post.PublishDate() == day {
			return copyPost(post), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *PostRepository) ListPublished() ([]*models.Post, error) {
	return m.list(func(p *models.Post) bool { return p.IsPublished() }), nil
}

func (m *PostRepository) ListByAuthor(authorID int) ([]*models.Post, error) {
	return m.list(func(p *models.Post) bool { return p.AuthorID == authorID }), nil
}

func (m *PostRepository) list(keep func(*models.Post) bool) []*models.Post {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	posts := []*models.Post{}
	for _, post := range m.posts {
		if keep(post) {
			posts = append(posts, copyPost(post))
		}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Publish.Equal(posts[j].Publish) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].Publish.After(posts[j].Publish)
	})
	return posts
}

func (m *PostRepository) Update(post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	if m.slugTaken(post, post.ID) {
		return repositories.ErrDuplicateSlug
	}
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) slugTaken(post *models.Post, ownerID int) bool {
	for id, existing := range m.posts {
		if id != ownerID && existing.Slug == post.Slug && existing.PublishDate() == post.PublishDate() {
			return true
		}
	}
	return false
}

func copyPost(post *models.Post) *models.Post {
	c := *post
	c.Author, c.Category = nil, nil
	return &c
}

// CommentRepository implementation
func (m *CommentRepository) Create(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	m.nextID++
	c := *comment
	c.Post = nil
	m.comments[comment.ID] = &c
	return nil
}

func (m *CommentRepository) GetByID(id int) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	c := *comment
	return &c, nil
}

func (m *CommentRepository) Update(comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.comments[comment.ID]; !exists {
		return repositories.ErrNotFound
	}
	c := *comment
	c.Post = nil
	m.comments[comment.ID] = &c
	return nil
}

func (m *CommentRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	return m.listByPost(postID, false), nil
}

func (m *CommentRepository) ListActiveByPost(postID int) ([]*models.Comment, error) {
	return m.listByPost(postID, true), nil
}

func (m *CommentRepository) listByPost(postID int, activeOnly bool) []*models.Comment {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comments := []*models.Comment{}
	for _, comment := range m.comments {
		if comment.PostID != postID || (activeOnly && !comment.Active) {
			continue
		}
		c := *comment
		comments = append(comments, &c)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Created.Equal(comments[j].Created) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Created.Before(comments[j].Created)
	})
	return comments
}

// CategoryRepository implementation
func (m *CategoryRepository) Create(category *models.Category) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	category.ID = m.nextID
	m.nextID++
	c := *category
	m.categories[category.ID] = &c
	return nil
}

func (m *CategoryRepository) GetByID(id int) (*models.Category, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	category, exists := m.categories[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	c := *category
	return &c, nil
}

func (m *CategoryRepository) List() ([]*models.Category, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	categories := []*models.Category{}
	for _, category := range m.categories {
		c := *category
		categories = append(categories, &c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

// UserRepository implementation
func (m *UserRepository) OnSave(hook repositories.UserHook) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.hooks = append(m.hooks, hook)
}

func (m *UserRepository) Create(user *models.User) error {
	user.BeforeCreate()
	m.mutex.Lock()
	if m.usernameTaken(user.Username, 0) {
		m.mutex.Unlock()
		return repositories.ErrDuplicateUsername
	}
	user.ID = m.nextID
	m.nextID++
	c := *user
	m.users[user.ID] = &c
	m.mutex.Unlock()

	return m.runHooks(user, true)
}

func (m *UserRepository) GetByID(id int) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (m *UserRepository) GetByUsername(username string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, user := range m.users {
		if models.NormalizeUsername(user.Username) == models.NormalizeUsername(username) {
			c := *user
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) ListByEmail(email string) ([]*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	users := []*models.User{}
	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			c := *user
			users = append(users, &c)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *UserRepository) Update(user *models.User) error {
	m.mutex.Lock()
	if _, exists := m.users[user.ID]; !exists {
		m.mutex.Unlock()
		return repositories.ErrNotFound
	}
	if m.usernameTaken(user.Username, user.ID) {
		m.mutex.Unlock()
		return repositories.ErrDuplicateUsername
	}
	c := *user
	m.users[user.ID] = &c
	m.mutex.Unlock()

	return m.runHooks(user, false)
}

func (m *UserRepository) Delete(id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.users[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *UserRepository) usernameTaken(username string, ownerID int) bool {
	for id, user := range m.users {
		if id != ownerID && models.NormalizeUsername(user.Username) == models.NormalizeUsername(username) {
			return true
		}
	}
	return false
}

func (m *UserRepository) runHooks(user *models.User, created bool) error {
	m.mutex.RLock()
	hooks := append([]repositories.UserHook(nil), m.hooks...)
	m.mutex.RUnlock()

	for _, hook := range hooks {
		if err := hook(user, created); err != nil {
			return fmt.Errorf("user %d save hook: %w", user.ID, err)
		}
	}
	return nil
}

// ProfileRepository implementation
func (m *ProfileRepository) Create(profile *models.Profile) error {
	profile.BeforeSave()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.profiles[profile.UserID]; exists {
		return repositories.ErrDuplicateProfile
	}
	c := *profile
	m.profiles[profile.UserID] = &c
	return nil
}

func (m *ProfileRepository) GetByUserID(userID int) (*models.Profile, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	profile, exists := m.profiles[userID]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	c := *profile
	return &c, nil
}

func (m *ProfileRepository) Save(profile *models.Profile) error {
	profile.BeforeSave()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.profiles[profile.UserID]; !exists {
		return repositories.ErrNotFound
	}
	c := *profile
	m.profiles[profile.UserID] = &c
	return nil
}

// TokenRepository implementation. Tokens never expire.
func (m *TokenRepository) Issue(userID int) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token := uuid.NewString()
	m.tokens[token] = userID
	return token, nil
}

func (m *TokenRepository) Resolve(token string) (int, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	userID, exists := m.tokens[token]
	if !exists {
		return 0, repositories.ErrNotFound
	}
	return userID, nil
}

func (m *TokenRepository) Revoke(token string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.tokens, token)
	return nil
}

func (m *TokenRepository) RevokeUser(userID int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for token, id := range m.tokens {
		if id == userID {
			delete(m.tokens, token)
		}
	}
	return nil
}

// Count reports how many live tokens belong to userID.
func (m *TokenRepository) Count(userID int) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	n := 0
	for _, id := range m.tokens {
		if id == userID {
			n++
		}
	}
	return n
}

// Compile-time interface checks.
var (
	_ repositories.PostRepository     = (*PostRepository)(nil)
	_ repositories.CommentRepository  = (*CommentRepository)(nil)
	_ repositories.CategoryRepository = (*CategoryRepository)(nil)
	_ repositories.UserRepository     = (*UserRepository)(nil)
	_ repositories.ProfileRepository  = (*ProfileRepository)(nil)
	_ repositories.TokenRepository    = (*TokenRepository)(nil)
)
