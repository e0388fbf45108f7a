package store

import (
	"bitwise74/rating-api/internal/model"
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TitleFilter narrows a title listing. Zero values are ignored.
type TitleFilter struct {
	Genre    string // genre slug
	Category string // category slug
	Year     int
	Name     string
}

func (g *Graph) ListGenres(ctx context.Context, search string, p Page) ([]model.Genre, int64, error) {
	var genres []model.Genre
	count, err := listSlugged(g.db.WithContext(ctx).Model(model.Genre{}), search, p, &genres)
	return genres, count, err
}

func (g *Graph) ListCategories(ctx context.Context, search string, p Page) ([]model.Category, int64, error) {
	var categories []model.Category
	count, err := listSlugged(g.db.WithContext(ctx).Model(model.Category{}), search, p, &categories)
	return categories, count, err
}

func listSlugged(q *gorm.DB, search string, p Page, dst any) (int64, error) {
	if search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count rows, %w", err)
	}

	if err := p.apply(q.Order("name")).Find(dst).Error; err != nil {
		return 0, fmt.Errorf("failed to list rows, %w", err)
	}

	return count, nil
}

func (g *Graph) CreateGenre(ctx context.Context, genre *model.Genre) error {
	return g.db.WithContext(ctx).Create(genre).Error
}

func (g *Graph) CreateCategory(ctx context.Context, c *model.Category) error {
	return g.db.WithContext(ctx).Create(c).Error
}

// GenresBySlugs returns the genres matching slugs. Unknown slugs are reported
// by the caller comparing lengths.
func (g *Graph) GenresBySlugs(ctx context.Context, slugs []string) ([]model.Genre, error) {
	var genres []model.Genre
	if err := g.db.WithContext(ctx).Where("slug IN ?", slugs).Order("id").Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch genres, %w", err)
	}

	return genres, nil
}

func (g *Graph) CategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var c model.Category
	if err := g.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error; err != nil {
		return nil, notFound(err, "category")
	}

	return &c, nil
}

// DeleteGenre removes the genre and unlinks it from every title.
func (g *Graph) DeleteGenre(ctx context.Context, slug string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var genre model.Genre
		if err := tx.Where("slug = ?", slug).First(&genre).Error; err != nil {
			return notFound(err, "genre")
		}

		if err := tx.Exec("DELETE FROM title_genres WHERE genre_id = ?", genre.ID).Error; err != nil {
			return err
		}

		return tx.Delete(&genre).Error
	})
}

// DeleteCategory removes the category. Titles in it are kept with no category.
func (g *Graph) DeleteCategory(ctx context.Context, slug string) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Category
		if err := tx.Where("slug = ?", slug).First(&c).Error; err != nil {
			return notFound(err, "category")
		}

		err := tx.
			Model(model.Title{}).
			Where("category_id = ?", c.ID).
			Update("category_id", nil).
			Error
		if err != nil {
			return err
		}

		return tx.Delete(&c).Error
	})
}

func (g *Graph) ListTitles(ctx context.Context, f TitleFilter, p Page) ([]model.Title, int64, error) {
	q := g.db.WithContext(ctx).Model(model.Title{})

	if f.Genre != "" {
		q = q.Where("titles.id IN (?)", g.db.
			Table("title_genres").
			Select("title_genres.title_id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", f.Genre))
	}

	if f.Category != "" {
		q = q.Where("titles.category_id IN (?)", g.db.
			Model(model.Category{}).
			Select("id").
			Where("slug = ?", f.Category))
	}

	if f.Year != 0 {
		q = q.Where("titles.year = ?", f.Year)
	}

	if f.Name != "" {
		q = q.Where("titles.name = ?", f.Name)
	}

	q = q.Session(&gorm.Session{})

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count titles, %w", err)
	}

	var titles []model.Title
	err := p.apply(q.Order("titles.id")).
		Preload("Genres", func(tx *gorm.DB) *gorm.DB { return tx.Order("genres.id") }).
		Preload("Category").
		Find(&titles).
		Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list titles, %w", err)
	}

	return titles, count, nil
}

func (g *Graph) FindTitle(ctx context.Context, id uint) (*model.Title, error) {
	var t model.Title

	err := g.db.WithContext(ctx).
		Preload("Genres", func(tx *gorm.DB) *gorm.DB { return tx.Order("genres.id") }).
		Preload("Category").
		Where("id = ?", id).
		First(&t).
		Error
	if err != nil {
		return nil, notFound(err, "title")
	}

	return &t, nil
}

// TitleExists is the cheap existence check used before touching a title's reviews.
func (g *Graph) TitleExists(ctx context.Context, id uint) error {
	var n int64
	if err := g.db.WithContext(ctx).Model(model.Title{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}

	if n == 0 {
		return notFound(gorm.ErrRecordNotFound, "title")
	}

	return nil
}

// CreateTitle inserts t and links it to t.Genres, which must already exist.
func (g *Graph) CreateTitle(ctx context.Context, t *model.Title) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres", "Category").Create(t).Error; err != nil {
			return err
		}

		return linkGenres(tx, t.ID, t.Genres)
	})
}

// UpdateTitle writes the scalar fields of t. When replaceGenres is set the
// genre links are replaced by t.Genres.
func (g *Graph) UpdateTitle(ctx context.Context, t *model.Title, replaceGenres bool) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Model(t).
			Select("name", "year", "description", "category_id").
			Updates(map[string]any{
				"name":        t.Name,
				"year":        t.Year,
				"description": t.Description,
				"category_id": t.CategoryID,
			}).
			Error
		if err != nil {
			return err
		}

		if !replaceGenres {
			return nil
		}

		if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", t.ID).Error; err != nil {
			return err
		}

		return linkGenres(tx, t.ID, t.Genres)
	})
}

func linkGenres(tx *gorm.DB, titleID uint, genres []model.Genre) error {
	if len(genres) == 0 {
		return nil
	}

	rows := make([]map[string]any, len(genres))
	for i, genre := range genres {
		rows[i] = map[string]any{"title_id": titleID, "genre_id": genre.ID}
	}

	return tx.Table("title_genres").Create(rows).Error
}

// DeleteTitle removes a title with its reviews and their comments.
func (g *Graph) DeleteTitle(ctx context.Context, id uint) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviews := tx.Model(model.Review{}).Select("id").Where("title_id = ?", id)

		if err := tx.Where("review_id IN (?)", reviews).Delete(&model.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("title_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}

		if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", id).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.Title{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, "title")
		}

		return nil
	})
}
