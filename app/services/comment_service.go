package services

import (
	"fmt"

	"blogsite/app/forms"
	"blogsite/app/models"
	"blogsite/app/repositories"
)

// CommentAdded is the notice shown after a successful submission.
const CommentAdded = "Your comment has been added."

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// ListActiveComments returns the visible comments of a post, oldest first.
func (s *CommentService) ListActiveComments(postID int) ([]*models.Comment, error) {
	return s.commentRepo.ListActiveByPost(postID)
}

// ListPostComments returns every comment of a post including hidden ones.
func (s *CommentService) ListPostComments(postID int) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(postID)
}

// PostComments returns the comments user may see on post: every comment
// for the post's author, only the active ones for everybody else.
func (s *CommentService) PostComments(user *models.User, post *models.Post) ([]*models.Comment, error) {
	if post.IsAuthoredBy(user) {
		return s.ListPostComments(post.ID)
	}
	return s.ListActiveComments(post.ID)
}

// SubmitComment validates form and attaches a new active comment to post.
// Only published posts accept comments. Nothing is stored on failure.
func (s *CommentService) SubmitComment(post *models.Post, form *forms.CommentForm) (*models.Comment, error) {
	if post == nil || !post.IsPublished() {
		return nil, repositories.ErrNotFound
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	comment := form.Comment(post.ID)
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}
	return comment, nil
}

// ToggleComment hides or shows a comment. Only the author of the post the
// comment belongs to may do it.
func (s *CommentService) ToggleComment(user *models.User, commentID int) (*models.Comment, error) {
	comment, err := s.moderated(user, commentID)
	if err != nil {
		return nil, err
	}

	comment.Active = !comment.Active
	comment.BeforeSave()
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("update comment %d: %w", comment.ID, err)
	}
	return comment, nil
}

// DeleteComment removes a comment for good. Only the author of the post may
// do it. The returned comment still carries its post.
func (s *CommentService) DeleteComment(user *models.User, commentID int) (*models.Comment, error) {
	comment, err := s.moderated(user, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(commentID); err != nil {
		return nil, fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	return comment, nil
}

// moderated loads a comment with its post and checks that user wrote the post.
func (s *CommentService) moderated(user *models.User, commentID int) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(commentID)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(comment.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(user) {
		return nil, ErrPermissionDenied
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}
	return comment, nil
}
