package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"blogsite/app/forms"
	"blogsite/app/models"
	"blogsite/app/repositories"
	"blogsite/app/validation"
)

// PageSize is the number of posts per list page.
const PageSize = 3

// Page is one page of the published post list.
type Page struct {
	Posts    []*models.Post `json:"posts"`
	Number   int            `json:"number"`
	NumPages int            `json:"num_pages"`
	Count    int            `json:"count"`
	HasNext  bool           `json:"has_next"`
	HasPrev  bool           `json:"has_previous"`
}

// NextNumber is the following page number.
func (p *Page) NextNumber() int { return p.Number + 1 }

// PrevNumber is the preceding page number.
func (p *Page) PrevNumber() int { return p.Number - 1 }

// ParsePage converts the page query parameter. An empty value means page 1;
// anything that is not a positive integer is ErrNotFound.
func ParsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, repositories.ErrNotFound
	}
	return n, nil
}

// PostService handles business logic for posts
type PostService struct {
	postRepo     repositories.PostRepository
	categoryRepo repositories.CategoryRepository
	userRepo     repositories.UserRepository
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository) *PostService {
	return &PostService{
		postRepo:     postRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

// ListPublished returns page number of the published posts, newest first.
// Page 1 always exists; any other page past the end is ErrNotFound.
func (s *PostService) ListPublished(number int) (*Page, error) {
	if number < 1 {
		return nil, repositories.ErrNotFound
	}
	posts, err := s.postRepo.ListPublished()
	if err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}

	numPages := (len(posts) + PageSize - 1) / PageSize
	if numPages == 0 {
		numPages = 1
	}
	if number > numPages {
		return nil, repositories.ErrNotFound
	}

	start := (number - 1) * PageSize
	end := start + PageSize
	if end > len(posts) {
		end = len(posts)
	}
	page := &Page{
		Posts:    posts[start:end],
		Number:   number,
		NumPages: numPages,
		Count:    len(posts),
		HasNext:  number < numPages,
		HasPrev:  number > 1,
	}
	for _, post := range page.Posts {
		s.attach(post)
	}
	return page, nil
}

// ListByAuthor returns every post user wrote, drafts included, newest
// first.
func (s *PostService) ListByAuthor(user *models.User) ([]*models.Post, error) {
	if user == nil {
		return nil, ErrPermissionDenied
	}
	posts, err := s.postRepo.ListByAuthor(user.ID)
	if err != nil {
		return nil, fmt.Errorf("list posts of user %d: %w", user.ID, err)
	}
	for _, post := range posts {
		s.attach(post)
	}
	return posts, nil
}

// GetPublishedByDateSlug finds the published post with slug whose publish
// date is year/month/day (UTC).
func (s *PostService) GetPublishedByDateSlug(year, month, day int, slug string) (*models.Post, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject dates that time.Date normalised, such as February 30th.
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return nil, repositories.ErrNotFound
	}

	post, err := s.postRepo.GetByDateSlug(date, slug)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() {
		return nil, repositories.ErrNotFound
	}
	s.attach(post)
	return post, nil
}

// GetPost retrieves a post by ID regardless of status
func (s *PostService) GetPost(id int) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	s.attach(post)
	return post, nil
}

// GetOwnedPost retrieves a post that user is allowed to modify.
func (s *PostService) GetOwnedPost(user *models.User, id int) (*models.Post, error) {
	post, err := s.GetPost(id)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(user) {
		return nil, ErrPermissionDenied
	}
	return post, nil
}

// Categories lists the categories a post can be filed under.
func (s *PostService) Categories() ([]*models.Category, error) {
	return s.categoryRepo.List()
}

// CreatePost validates form and stores a new post written by author.
func (s *PostService) CreatePost(author *models.User, form *forms.PostForm) (*models.Post, error) {
	if author == nil {
		return nil, ErrPermissionDenied
	}
	if err := s.validatePostForm(form); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: author.ID}
	form.Apply(post)
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.postRepo.Create(post); err != nil {
		return nil, mapSlugError(err)
	}
	s.attach(post)
	return post, nil
}

// UpdatePost applies form to the post with id. The stored post is left
// untouched when any check fails.
func (s *PostService) UpdatePost(user *models.User, id int, form *forms.PostForm) (*models.Post, error) {
	post, err := s.GetOwnedPost(user, id)
	if err != nil {
		return nil, err
	}
	if err := s.validatePostForm(form); err != nil {
		return nil, err
	}

	form.Apply(post)
	post.BeforeSave()
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(post); err != nil {
		return nil, mapSlugError(err)
	}
	s.attach(post)
	return post, nil
}

// DeletePost removes a post owned by user together with its comments.
func (s *PostService) DeletePost(user *models.User, id int) error {
	if _, err := s.GetOwnedPost(user, id); err != nil {
		return err
	}
	return s.postRepo.Delete(id)
}

func (s *PostService) validatePostForm(form *forms.PostForm) error {
	verr := &validation.ValidationError{}
	if err := form.Validate(); err != nil {
		fieldErrs, ok := validation.As(err)
		if !ok {
			return err
		}
		verr.Merge(fieldErrs)
	}
	if form.CategoryID > 0 {
		if _, err := s.categoryRepo.GetByID(form.CategoryID); errors.Is(err, repositories.ErrNotFound) {
			verr.Add("category_id", "Select a valid choice. That choice is not one of the available choices.")
		} else if err != nil {
			return fmt.Errorf("load category %d: %w", form.CategoryID, err)
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// attach loads the author and category for display. Missing relations are
// left nil.
func (s *PostService) attach(post *models.Post) {
	if author, err := s.userRepo.GetByID(post.AuthorID); err == nil {
		post.Author = author
	}
	if category, err := s.categoryRepo.GetByID(post.CategoryID); err == nil {
		post.Category = category
	}
}

func mapSlugError(err error) error {
	if errors.Is(err, repositories.ErrDuplicateSlug) {
		return validation.New("slug", "Slug must be unique for the publish date.")
	}
	return err
}
