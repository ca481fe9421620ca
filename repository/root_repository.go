package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/camden-git/shastadb/models"
	"gorm.io/gorm"
)

// RootRepository handles database operations for watched roots
type RootRepository struct {
	DB *gorm.DB
}

// NewRootRepository creates a new instance of RootRepository
func NewRootRepository(db *gorm.DB) *RootRepository {
	return &RootRepository{DB: db}
}

// Create inserts a new root. It starts active; use SetActive to disable it.
func (r *RootRepository) Create(root *models.Root) error {
	if err := r.DB.Create(root).Error; err != nil {
		return fmt.Errorf("failed to create root %s: %w", root.Name, translateError(err))
	}
	return nil
}

// GetByID retrieves a root by its ID
func (r *RootRepository) GetByID(id uint) (*models.Root, error) {
	var root models.Root
	err := r.DB.First(&root, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get root by ID %d: %w", id, err)
	}
	return &root, nil
}

// GetByName retrieves a root by its unique name
func (r *RootRepository) GetByName(name string) (*models.Root, error) {
	var root models.Root
	err := r.DB.Where("name = ?", name).First(&root).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get root by name %s: %w", name, err)
	}
	return &root, nil
}

// ListAll retrieves every root, active or not, ordered by name
func (r *RootRepository) ListAll() ([]models.Root, error) {
	var roots []models.Root
	if err := r.DB.Order("name ASC").Find(&roots).Error; err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	return roots, nil
}

// ListActive retrieves roots that should still be scanned
func (r *RootRepository) ListActive() ([]models.Root, error) {
	var roots []models.Root
	if err := r.DB.Where("is_active = ?", true).Order("name ASC").Find(&roots).Error; err != nil {
		return nil, fmt.Errorf("failed to list active roots: %w", err)
	}
	return roots, nil
}

// SetActive soft-enables or soft-disables a root. Roots are never deleted.
func (r *RootRepository) SetActive(id uint, active bool) error {
	result := r.DB.Model(&models.Root{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to set is_active on root ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EnsureRoot returns the root called name, creating it as active with path if
// it does not exist. An existing root is returned as-is, even if its path differs.
// The bool reports whether a new record was created.
func (r *RootRepository) EnsureRoot(name, path string) (*models.Root, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, errors.New("root name must not be empty")
	}

	existing, err := r.GetByName(name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	root := &models.Root{Name: name, Path: path, IsActive: true}
	if err := r.Create(root); err != nil {
		return nil, false, err
	}
	return root, true, nil
}
