package db

import (
	"bitwise74/rating-api/internal/model"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type migration struct {
	name string
	up   func(tx *gorm.DB) error
}

// Schema changes gorm tags can't express. Each one runs once and is recorded
// in the migrations table.
var migrations = []migration{
	{
		name: "review_author_title_unique",
		up: func(tx *gorm.DB) error {
			return tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_review_author_title ON reviews (author_id, title_id)").Error
		},
	},
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		model.User{},
		model.Category{},
		model.Genre{},
		model.Title{},
		model.Review{},
		model.Comment{},
		model.Migration{},
	)
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	for _, m := range migrations {
		var applied int64

		err := db.Model(model.Migration{}).Where("name = ?", m.name).Count(&applied).Error
		if err != nil {
			return fmt.Errorf("failed to check migration %s, %w", m.name, err)
		}

		if applied > 0 {
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}

			return tx.Create(&model.Migration{Name: m.name}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s, %w", m.name, err)
		}

		zap.L().Debug("Applied migration", zap.String("name", m.name))
	}

	return nil
}
