package store

import (
	"bitwise74/rating-api/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

func (g *Graph) UserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &u, nil
}

func (g *Graph) UserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := g.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &u, nil
}

func (g *Graph) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := g.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}

	return &u, nil
}

// CreateUser inserts u. A taken username or email fails with gorm.ErrDuplicatedKey.
func (g *Graph) CreateUser(ctx context.Context, u *model.User) error {
	return g.db.WithContext(ctx).Create(u).Error
}

// UpdateUser writes only the given columns of user id, so fields another
// request changed in the meantime are left alone.
func (g *Graph) UpdateUser(ctx context.Context, id string, cols map[string]any) error {
	res := g.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "user")
	}

	return nil
}

// UpdateUserIfStamp is UpdateUser guarded by the stamp the caller last saw. It
// reports false when the stamp has moved on and nothing was written.
func (g *Graph) UpdateUserIfStamp(ctx context.Context, id, stamp string, cols map[string]any) (bool, error) {
	res := g.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND stamp = ?", id, stamp).
		Updates(cols)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (g *Graph) ListUsers(ctx context.Context, search string, p Page) ([]model.User, int64, error) {
	q := g.db.WithContext(ctx).Model(model.User{})
	if search != "" {
		q = q.Where("username LIKE ?", "%"+search+"%")
	}

	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users, %w", err)
	}

	var users []model.User
	if err := p.apply(q.Order("username")).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users, %w", err)
	}

	return users, count, nil
}

// DeleteUser removes a user together with everything they authored and the
// comments left under their reviews.
func (g *Graph) DeleteUser(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownReviews := tx.Model(model.Review{}).Select("id").Where("author_id = ?", id)

		err := tx.
			Where("author_id = ? OR review_id IN (?)", id, ownReviews).
			Delete(&model.Comment{}).
			Error
		if err != nil {
			return err
		}

		if err := tx.Where("author_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "user")
		}

		return nil
	})
}
