// Package store is the gorm-backed content graph: users, the catalog, and the
// reviews and comments hanging off titles. Deletes cascade explicitly inside
// a transaction so behaviour doesn't depend on driver foreign key settings.
package store

import (
	"bitwise74/rating-api/internal/apperr"
	"errors"

	"gorm.io/gorm"
)

type Graph struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Graph {
	return &Graph{db: db}
}

// Page selects a 1-based page of a list.
type Page struct {
	Number int
	Size   int
}

func (p Page) apply(tx *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return tx
	}

	n := max(p.Number, 1)
	return tx.Offset((n - 1) * p.Size).Limit(p.Size)
}

// IsDuplicate reports whether err came from a unique index violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(resource)
	}

	return err
}

// withAuthor selects the rows of table joined with their author's username.
func withAuthor(tx *gorm.DB, table string) *gorm.DB {
	return tx.
		Select(table + ".*, users.username AS author_name").
		Joins("LEFT JOIN users ON users.id = " + table + ".author_id")
}
