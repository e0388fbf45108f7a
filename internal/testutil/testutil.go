// Package testutil builds in-memory databases and fixtures for package tests.
package testutil

import (
	"bitwise74/rating-api/db"
	"bitwise74/rating-api/internal/model"
	"context"
	"testing"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.New(db.Config{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}

func User(t testing.TB, gdb *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()

	u := &model.User{
		ID:       gonanoid.Must(16),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		Stamp:    gonanoid.Must(16),
	}
	require.NoError(t, gdb.WithContext(context.Background()).Create(u).Error)

	return u
}

func Title(t testing.TB, gdb *gorm.DB, name string, year int) *model.Title {
	t.Helper()

	title := &model.Title{Name: name, Year: year}
	require.NoError(t, gdb.Create(title).Error)

	return title
}

func Review(t testing.TB, gdb *gorm.DB, author *model.User, title *model.Title, score int) *model.Review {
	t.Helper()

	r := &model.Review{
		TitleID:  title.ID,
		Score:    score,
		Authored: model.Authored{Text: "review by " + author.Username, AuthorID: author.ID},
	}
	require.NoError(t, gdb.Create(r).Error)

	return r
}

func Comment(t testing.TB, gdb *gorm.DB, author *model.User, review *model.Review) *model.Comment {
	t.Helper()

	c := &model.Comment{
		ReviewID: review.ID,
		Authored: model.Authored{Text: "comment by " + author.Username, AuthorID: author.ID},
	}
	require.NoError(t, gdb.Create(c).Error)

	return c
}
