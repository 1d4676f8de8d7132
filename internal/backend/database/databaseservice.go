package database

import "errors"

var (
	// ErrNotFound is returned when a photo or associated photo does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when a photo id is already in use.
	ErrDuplicateID = errors.New("duplicate id")
)

type DatabaseService interface {
	CreateDatabase() error
	DoesDatabaseExist() bool
	Close() error

	// CreatePhoto appends a photo at the end of the library order and
	// returns it with its rank set. The id must be unique.
	CreatePhoto(photo Photo) (*Photo, error)
	// GetPhotoByID returns nil without error when the id is unknown.
	GetPhotoByID(id string) (*Photo, error)
	// GetPhotos returns all photos in library order.
	GetPhotos() ([]*Photo, error)
	// UpdatePhoto replaces description, object and generated description.
	UpdatePhoto(photo Photo) error
	DeletePhoto(id string) error

	AddAssociatedPhoto(photoID string, associated AssociatedPhoto) error
	// RemoveAssociatedPhotos returns how many associated photos were removed.
	RemoveAssociatedPhotos(photoID string, ids []string) (int, error)

	GetOrderedPhotoIDs() ([]string, error)
	// UpdatePhotoOrder persists the given order, rewriting as few ranks as possible.
	UpdatePhotoOrder(order []string) error
}
