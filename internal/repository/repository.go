package repository

import (
	"database/sql"
	"playlink/internal/models"
)

// LinkStore is the single source of truth for link records. Every mutation is
// durably persisted before the call returns; a persistence failure fails the
// call and leaves no partial write visible to other callers.
type LinkStore interface {
	Put(rec models.LinkRecord) error
	Get(code string) (*models.LinkRecord, error)
	Delete(code string) error
	FindByCaller(callerID string) ([]models.LinkRecord, error)
	FindByGameAccount(gameAccountID string) ([]models.LinkRecord, error)
	All() ([]models.LinkRecord, error)
}

type Repository struct {
	Links LinkStore
	db    *sql.DB
}

func NewRepository(cfg *Config, db *sql.DB) *Repository {
	return &Repository{
		Links: NewLinkPostgres(db),
		db:    db,
	}
}

func NewFileRepository(store *LinkFile) *Repository {
	return &Repository{Links: store}
}
