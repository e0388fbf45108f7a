package store

import (
	"bitwise74/rating-api/internal/model"
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"
)

func (g *Graph) ReviewsOf(ctx context.Context, titleID uint, p Page) ([]model.Review, int64, error) {
	q := g.db.WithContext(ctx).Model(model.Review{}).Where("reviews.title_id = ?", titleID).Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews, %w", err)
	}

	var reviews []model.Review
	if err := p.apply(withAuthor(q, "reviews").Order("reviews.id")).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews, %w", err)
	}

	return reviews, count, nil
}

// FindReview looks a review up under its title, so a review id paired with
// the wrong title is reported as missing.
func (g *Graph) FindReview(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	var r model.Review

	err := withAuthor(g.db.WithContext(ctx).Model(model.Review{}), "reviews").
		Where("reviews.title_id = ? AND reviews.id = ?", titleID, reviewID).
		First(&r).
		Error
	if err != nil {
		return nil, notFound(err, "review")
	}

	return &r, nil
}

// CreateReview inserts r. A second review by the same author for the same
// title fails with gorm.ErrDuplicatedKey from the unique index.
func (g *Graph) CreateReview(ctx context.Context, r *model.Review) error {
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *Graph) UpdateReview(ctx context.Context, r *model.Review) error {
	return g.db.WithContext(ctx).
		Model(r).
		Select("text", "score").
		Updates(map[string]any{"text": r.Text, "score": r.Score}).
		Error
}

func (g *Graph) DeleteReview(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.Review{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "review")
		}

		return nil
	})
}

// AverageScore returns the mean score of a title's reviews, or nil when the
// title has none.
func (g *Graph) AverageScore(ctx context.Context, titleID uint) (*float64, error) {
	// AVG over no rows is a single NULL row
	var avg sql.NullFloat64

	err := g.db.WithContext(ctx).
		Model(model.Review{}).
		Select("AVG(score)").
		Where("title_id = ?", titleID).
		Row().
		Scan(&avg)
	if err != nil {
		return nil, fmt.Errorf("failed to average scores, %w", err)
	}

	if !avg.Valid {
		return nil, nil
	}

	return &avg.Float64, nil
}

type titleAverage struct {
	TitleID uint
	Average float64
}

// AverageScores is AverageScore for many titles in one query. Titles with no
// reviews are absent from the result.
func (g *Graph) AverageScores(ctx context.Context, titleIDs []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(titleIDs))
	if len(titleIDs) == 0 {
		return out, nil
	}

	var rows []titleAverage

	err := g.db.WithContext(ctx).
		Model(model.Review{}).
		Select("title_id, AVG(score) AS average").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to average scores, %w", err)
	}

	for _, r := range rows {
		out[r.TitleID] = r.Average
	}

	return out, nil
}

func (g *Graph) CommentsOf(ctx context.Context, reviewID uint, p Page) ([]model.Comment, int64, error) {
	q := g.db.WithContext(ctx).Model(model.Comment{}).Where("comments.review_id = ?", reviewID).Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count comments, %w", err)
	}

	var comments []model.Comment
	if err := p.apply(withAuthor(q, "comments").Order("comments.id")).Find(&comments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list comments, %w", err)
	}

	return comments, count, nil
}

func (g *Graph) FindComment(ctx context.Context, reviewID, commentID uint) (*model.Comment, error) {
	var c model.Comment

	err := withAuthor(g.db.WithContext(ctx).Model(model.Comment{}), "comments").
		Where("comments.review_id = ? AND comments.id = ?", reviewID, commentID).
		First(&c).
		Error
	if err != nil {
		return nil, notFound(err, "comment")
	}

	return &c, nil
}

func (g *Graph) CreateComment(ctx context.Context, c *model.Comment) error {
	return g.db.WithContext(ctx).Create(c).Error
}

func (g *Graph) UpdateComment(ctx context.Context, c *model.Comment) error {
	return g.db.WithContext(ctx).Model(c).Update("text", c.Text).Error
}

func (g *Graph) DeleteComment(ctx context.Context, id uint) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Comment{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound, "comment")
	}

	return nil
}
