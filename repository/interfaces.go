package repository

import "github.com/camden-git/shastadb/models"

// RootRepositoryInterface defines the methods for watched-root data operations
type RootRepositoryInterface interface {
	Create(root *models.Root) error
	GetByID(id uint) (*models.Root, error)
	GetByName(name string) (*models.Root, error)
	ListAll() ([]models.Root, error)
	ListActive() ([]models.Root, error)
	SetActive(id uint, active bool) error
	EnsureRoot(name, path string) (*models.Root, bool, error)
}

// InstanceRepositoryInterface defines the methods for instance data operations
type InstanceRepositoryInterface interface {
	Create(instance *models.Instance) error
	Observe(instance *models.Instance) (*models.Instance, bool, error)
	GetByID(id uint) (*models.Instance, error)
	GetByRootPath(rootID uint, relPath string) (*models.Instance, error)
	GetWithPeople(id uint) (*models.Instance, error)
	ListByRoot(rootID uint, order string) ([]models.Instance, error)
	ListNeedingReview() ([]models.Instance, error)
	UpdateMetadata(id uint, displayTitle, category *string) error
	SetFlags(id uint, needsReview, skipProcessing *bool) error
	Delete(id uint) error
}

// PersonRepositoryInterface defines the methods for person and tag data operations
type PersonRepositoryInterface interface {
	Create(person *models.Person) error
	GetOrCreate(name string) (*models.Person, bool, error)
	GetByID(id uint) (*models.Person, error)
	GetByName(name string) (*models.Person, error)
	ListAll() ([]models.Person, error)
	Delete(id uint) error
	DeleteOrphans() (int64, error)
	Link(instanceID, personID uint, source models.LinkSource) error
	Unlink(instanceID, personID uint) error
	PeopleForInstance(instanceID uint) ([]models.Person, error)
	InstancesForPerson(personID uint) ([]models.Instance, error)
}

var (
	_ RootRepositoryInterface     = (*RootRepository)(nil)
	_ InstanceRepositoryInterface = (*InstanceRepository)(nil)
	_ PersonRepositoryInterface   = (*PersonRepository)(nil)
)
