package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/camden-git/shastadb/models"
	"github.com/facette/natsort"
	"gorm.io/gorm"
)

// InstanceRepository handles database operations for Instance entities
type InstanceRepository struct {
	DB *gorm.DB
}

// NewInstanceRepository creates a new instance of InstanceRepository
func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{DB: db}
}

// Create inserts a new instance. A second instance at the same (root, rel_path)
// fails with a unique ConstraintViolationError; a rel_path leading outside the
// root fails with models.ErrInvalidRelPath.
func (r *InstanceRepository) Create(instance *models.Instance) error {
	if err := r.DB.Create(instance).Error; err != nil {
		return fmt.Errorf("failed to create instance %s in root %d: %w", instance.RelPath, instance.RootID, translateError(err))
	}
	return nil
}

// Observe records a sighting of a file. The first sighting creates the
// instance; later ones refresh the scanner-owned attributes and last_seen_utc
// while keeping first_seen_utc, flags and UI-editable metadata.
// The bool reports whether a new record was created.
func (r *InstanceRepository) Observe(instance *models.Instance) (*models.Instance, bool, error) {
	relPath, err := models.CleanRelPath(instance.RelPath)
	if err != nil {
		return nil, false, err
	}
	created := false
	var stored models.Instance

	err = r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("root_id = ? AND rel_path = ?", instance.RootID, relPath).First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fresh := *instance
			fresh.ID = 0
			fresh.RelPath = relPath
			if err := tx.Create(&fresh).Error; err != nil {
				return translateError(err)
			}
			stored = fresh
			created = true
			return nil
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":          instance.Name,
			"ext":           models.NormalizeExt(instance.Ext),
			"size_bytes":    instance.SizeBytes,
			"mtime_utc":     instance.MtimeUTC,
			"kind":          instance.Kind,
			"last_seen_utc": time.Now().UTC(),
		}
		if err := tx.Model(&models.Instance{}).Where("id = ?", stored.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&stored, stored.ID).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to observe %s in root %d: %w", relPath, instance.RootID, err)
	}
	return &stored, created, nil
}

// GetByID retrieves an instance by its ID
func (r *InstanceRepository) GetByID(id uint) (*models.Instance, error) {
	var instance models.Instance
	err := r.DB.First(&instance, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get instance by ID %d: %w", id, err)
	}
	return &instance, nil
}

// GetByRootPath retrieves the instance at relPath under rootID
func (r *InstanceRepository) GetByRootPath(rootID uint, relPath string) (*models.Instance, error) {
	cleanPath, err := models.CleanRelPath(relPath)
	if err != nil {
		return nil, err
	}
	var instance models.Instance
	err = r.DB.Where("root_id = ? AND rel_path = ?", rootID, cleanPath).First(&instance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get instance %s in root %d: %w", cleanPath, rootID, err)
	}
	return &instance, nil
}

// GetWithPeople retrieves an instance with its person links and the linked people preloaded
func (r *InstanceRepository) GetWithPeople(id uint) (*models.Instance, error) {
	var instance models.Instance
	err := r.DB.Preload("PeopleLinks", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_utc ASC")
	}).Preload("PeopleLinks.Person").First(&instance, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get instance %d with people: %w", id, err)
	}
	return &instance, nil
}

// ListByRoot retrieves every instance under a root. An empty or unknown
// order falls back to DefaultSortOrder; SortPathNat puts "img2.jpg" before "img10.jpg".
func (r *InstanceRepository) ListByRoot(rootID uint, order string) ([]models.Instance, error) {
	if !IsValidSortOrder(order) {
		order = DefaultSortOrder
	}

	query := r.DB.Where("root_id = ?", rootID)
	switch order {
	case SortPathAsc:
		query = query.Order("rel_path ASC")
	case SortMtimeDesc:
		query = query.Order("mtime_utc DESC").Order("rel_path ASC")
	case SortMtimeAsc:
		query = query.Order("mtime_utc ASC").Order("rel_path ASC")
	}

	var instances []models.Instance
	if err := query.Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("failed to list instances for root %d: %w", rootID, err)
	}

	if order == SortPathNat {
		sort.SliceStable(instances, func(i, j int) bool {
			return natsort.Compare(instances[i].RelPath, instances[j].RelPath)
		})
	}
	return instances, nil
}

// ListNeedingReview retrieves instances flagged for review, most recently seen first
func (r *InstanceRepository) ListNeedingReview() ([]models.Instance, error) {
	var instances []models.Instance
	err := r.DB.Where("needs_review = ?", true).
		Order("last_seen_utc DESC").
		Order("id ASC").
		Find(&instances).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list instances needing review: %w", err)
	}
	return instances, nil
}

// UpdateMetadata sets the UI-editable fields. A nil argument leaves the field
// unchanged; a pointer to an empty string clears it to NULL.
func (r *InstanceRepository) UpdateMetadata(id uint, displayTitle, category *string) error {
	updates := map[string]interface{}{}
	if displayTitle != nil {
		updates["display_title"] = nullableString(*displayTitle)
	}
	if category != nil {
		updates["category"] = nullableString(*category)
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.DB.Model(&models.Instance{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update metadata for instance %d: %w", id, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetFlags updates needs_review and/or skip_processing. nil leaves a flag unchanged.
func (r *InstanceRepository) SetFlags(id uint, needsReview, skipProcessing *bool) error {
	updates := map[string]interface{}{}
	if needsReview != nil {
		updates["needs_review"] = *needsReview
	}
	if skipProcessing != nil {
		updates["skip_processing"] = *skipProcessing
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.DB.Model(&models.Instance{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to set flags for instance %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an instance. Its person links go with it (ON DELETE CASCADE);
// the people themselves are kept.
func (r *InstanceRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Instance{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete instance ID %d: %w", id, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return gorm.Expr("NULL")
	}
	return s
}
