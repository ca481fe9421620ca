package repository

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/camden-git/shastadb/models"
	"gorm.io/gorm"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// PersonRepository handles database operations for Person and InstancePerson entities
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// Create creates a new person record in the database
func (r *PersonRepository) Create(person *models.Person) error {
	person.Name = strings.TrimSpace(person.Name)
	if person.Name == "" {
		return errors.New("person name must not be empty")
	}
	if err := r.DB.Create(person).Error; err != nil {
		return fmt.Errorf("failed to create person %s: %w", person.Name, translateError(err))
	}
	return nil
}

// GetOrCreate returns the person called name, creating them on first reference.
// The bool reports whether a new record was created.
func (r *PersonRepository) GetOrCreate(name string) (*models.Person, bool, error) {
	name = strings.TrimSpace(name)
	existing, err := r.GetByName(name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	person := &models.Person{Name: name}
	if err := r.Create(person); err != nil {
		return nil, false, err
	}
	return person, true, nil
}

// GetByID retrieves a person by their ID
func (r *PersonRepository) GetByID(id uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// GetByName retrieves a person by their exact name
func (r *PersonRepository) GetByName(name string) (*models.Person, error) {
	var person models.Person
	err := r.DB.Where("name = ?", name).First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by name %s: %w", name, err)
	}
	return &person, nil
}

// ListAll retrieves all people, ordered by name
func (r *PersonRepository) ListAll() ([]models.Person, error) {
	var people []models.Person
	if err := r.DB.Order("name ASC").Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// Delete removes a person by their ID. Their links are removed by the store
// (ON DELETE CASCADE); the linked instances are kept.
func (r *PersonRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Person{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete person ID %d: %w", id, translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrphans removes people that are no longer linked to any instance and
// returns how many were removed. People are never pruned implicitly.
func (r *PersonRepository) DeleteOrphans() (int64, error) {
	linked := r.DB.Model(&models.InstancePerson{}).Select("person_id")
	result := r.DB.Where("id NOT IN (?)", linked).Delete(&models.Person{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned people: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Link tags a person onto an instance. Linking the same pair twice fails with
// a primary_key ConstraintViolationError; linking to a missing instance or
// person fails with a foreign_key one.
func (r *PersonRepository) Link(instanceID, personID uint, source models.LinkSource) error {
	if !source.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	link := models.InstancePerson{
		InstanceID: instanceID,
		PersonID:   personID,
		Source:     source,
	}
	if err := r.DB.Create(&link).Error; err != nil {
		return fmt.Errorf("failed to link person %d to instance %d: %w", personID, instanceID, translateError(err))
	}
	return nil
}

// Unlink removes the tag of a person on an instance
func (r *PersonRepository) Unlink(instanceID, personID uint) error {
	result := r.DB.Where("instance_id = ? AND person_id = ?", instanceID, personID).Delete(&models.InstancePerson{})
	if result.Error != nil {
		return fmt.Errorf("failed to unlink person %d from instance %d: %w", personID, instanceID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PeopleForInstance retrieves the people linked to an instance, ordered by name
func (r *PersonRepository) PeopleForInstance(instanceID uint) ([]models.Person, error) {
	queryBuilder := psql.Select("p.id", "p.name").
		From("people p").
		Join("instance_people ip ON ip.person_id = p.id").
		Where(sq.Eq{"ip.instance_id": instanceID}).
		OrderBy("p.name ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for PeopleForInstance: %w", err)
	}

	people := []models.Person{}
	if err := r.DB.Raw(sqlStr, args...).Scan(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list people for instance %d: %w", instanceID, err)
	}
	return people, nil
}

// PersonNamesForInstance is PeopleForInstance reduced to names
func (r *PersonRepository) PersonNamesForInstance(instanceID uint) ([]string, error) {
	people, err := r.PeopleForInstance(instanceID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	return names, nil
}

// InstancesForPerson retrieves the instances a person is linked to, ordered by ID
func (r *PersonRepository) InstancesForPerson(personID uint) ([]models.Instance, error) {
	queryBuilder := psql.Select("i.*").
		From("instances i").
		Join("instance_people ip ON ip.instance_id = i.id").
		Where(sq.Eq{"ip.person_id": personID}).
		OrderBy("i.id ASC")

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for InstancesForPerson: %w", err)
	}

	instances := []models.Instance{}
	if err := r.DB.Raw(sqlStr, args...).Scan(&instances).Error; err != nil {
		return nil, fmt.Errorf("failed to list instances for person %d: %w", personID, err)
	}
	return instances, nil
}
