package repositories

import (
	"sort"

	"blogsite/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		// The parent post must still exist when the comment lands.
		var post models.Post
		if err := getEntity(txn, postKey(comment.PostID), &post); err != nil {
			return err
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		// Save comment with post ID in key for efficient listing
		return setEntity(txn, commentKey(comment.PostID, comment.ID), comment)
	})
}

// GetByID retrieves a comment by ID
func (r *BadgerCommentRepository) GetByID(id int) (*models.Comment, error) {
	var found *models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, _, err = findComment(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ListByPost retrieves all comments for a post, oldest first
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	return r.listByPost(postID, false)
}

// ListActiveByPost retrieves the active comments for a post, oldest first
func (r *BadgerCommentRepository) ListActiveByPost(postID int) ([]*models.Comment, error) {
	return r.listByPost(postID, true)
}

func (r *BadgerCommentRepository) listByPost(postID int, activeOnly bool) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		return forEachPrefix(txn, commentPostPrefix(postID), func(_, val []byte) error {
			var comment models.Comment
			if err := unmarshalEntity(val, &comment); err != nil {
				return err
			}
			if !activeOnly || comment.Active {
				comments = append(comments, &comment)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortByCreatedAsc(comments)
	return comments, nil
}

// Update updates an existing comment
func (r *BadgerCommentRepository) Update(comment *models.Comment) error {
	return r.db.Update(func(txn *badger.Txn) error {
		existing, key, err := findComment(txn, comment.ID)
		if err != nil {
			return err
		}
		// A comment never moves between posts.
		comment.PostID = existing.PostID
		return setEntity(txn, key, comment)
	})
}

// Delete deletes a comment by ID
func (r *BadgerCommentRepository) Delete(id int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		_, key, err := findComment(txn, id)
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// findComment scans the comment keyspace for id since keys are grouped by post.
func findComment(txn *badger.Txn, id int) (*models.Comment, []byte, error) {
	var found *models.Comment
	var foundKey []byte
	err := forEachPrefix(txn, []byte(CommentKeyPrefix), func(key, val []byte) error {
		if found != nil {
			return nil
		}
		var comment models.Comment
		if err := unmarshalEntity(val, &comment); err != nil {
			return err
		}
		if comment.ID == id {
			found = &comment
			foundKey = key
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if found == nil {
		return nil, nil, ErrNotFound
	}
	return found, foundKey, nil
}

func sortByCreatedAsc(comments []*models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Created.Equal(comments[j].Created) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].Created.Before(comments[j].Created)
	})
}
