package repositories

import (
	"errors"

	"blogsite/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerProfileRepository implements ProfileRepository using BadgerDB.
// Profiles are keyed by their user's ID.
type BadgerProfileRepository struct {
	db *badger.DB
}

// NewBadgerProfileRepository creates a new BadgerProfileRepository
func NewBadgerProfileRepository(db *badger.DB) *BadgerProfileRepository {
	return &BadgerProfileRepository{db: db}
}

// Create stores a new profile, failing if the user already has one
func (r *BadgerProfileRepository) Create(profile *models.Profile) error {
	profile.BeforeSave()
	return r.db.Update(func(txn *badger.Txn) error {
		var user models.User
		if err := getEntity(txn, userKey(profile.UserID), &user); err != nil {
			return err
		}
		_, err := txn.Get(profileKey(profile.UserID))
		if err == nil {
			return ErrDuplicateProfile
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setEntity(txn, profileKey(profile.UserID), profile)
	})
}

// GetByUserID retrieves the profile of a user
func (r *BadgerProfileRepository) GetByUserID(userID int) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, profileKey(userID), &profile)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save writes an existing profile back
func (r *BadgerProfileRepository) Save(profile *models.Profile) error {
	profile.BeforeSave()
	return r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(profileKey(profile.UserID)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return setEntity(txn, profileKey(profile.UserID), profile)
	})
}
