package repositories

import (
	"sort"

	"blogsite/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCategoryRepository implements CategoryRepository using BadgerDB
type BadgerCategoryRepository struct {
	db *badger.DB
}

// NewBadgerCategoryRepository creates a new BadgerCategoryRepository
func NewBadgerCategoryRepository(db *badger.DB) *BadgerCategoryRepository {
	return &BadgerCategoryRepository{db: db}
}

// Create creates a new category
func (r *BadgerCategoryRepository) Create(category *models.Category) error {
	return r.db.Update(func(txn *badger.Txn) error {
		id, err := getNextID(txn, CategorySeqKey)
		if err != nil {
			return err
		}
		category.ID = id
		return setEntity(txn, categoryKey(id), category)
	})
}

// GetByID retrieves a category by ID
func (r *BadgerCategoryRepository) GetByID(id int) (*models.Category, error) {
	var category models.Category
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, categoryKey(id), &category)
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// List retrieves all categories ordered by name
func (r *BadgerCategoryRepository) List() ([]*models.Category, error) {
	categories := []*models.Category{}
	err := r.db.View(func(txn *badger.Txn) error {
		return forEachPrefix(txn, []byte(CategoryKeyPrefix), func(_, val []byte) error {
			var category models.Category
			if err := unmarshalEntity(val, &category); err != nil {
				return err
			}
			categories = append(categories, &category)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}
