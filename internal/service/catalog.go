package service

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/pkg/validators"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const maxNameLen = 256

// RatedTitle is a title together with its current rating.
type RatedTitle struct {
	model.Title
	Rating *float64 `json:"rating"`
}

type TitleInput struct {
	Name        string
	Year        int
	Description string
	Genres      []string // genre slugs
	Category    string   // category slug
}

// TitlePatch holds the optional fields of a title update.
type TitlePatch struct {
	Name        *string
	Year        *int
	Description *string
	Genres      *[]string
	Category    *string
}

// CatalogService validates and stores titles, genres and categories.
type CatalogService struct {
	g       *store.Graph
	ratings *RatingAggregator
	minYear int
	now     func() time.Time
}

func NewCatalogService(g *store.Graph, ratings *RatingAggregator, minYear int) *CatalogService {
	return &CatalogService{g: g, ratings: ratings, minYear: minYear, now: time.Now}
}

func (s *CatalogService) ListGenres(ctx context.Context, search string, p store.Page) ([]model.Genre, int64, error) {
	return s.g.ListGenres(ctx, search, p)
}

func (s *CatalogService) ListCategories(ctx context.Context, search string, p store.Page) ([]model.Category, int64, error) {
	return s.g.ListCategories(ctx, search, p)
}

func (s *CatalogService) CreateGenre(ctx context.Context, name, slug string) (*model.Genre, error) {
	sl, err := validateSlugged(name, slug)
	if err != nil {
		return nil, err
	}

	genre := &model.Genre{Slugged: sl}
	if err := s.g.CreateGenre(ctx, genre); err != nil {
		return nil, slugConflict(err, "genre")
	}

	return genre, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*model.Category, error) {
	sl, err := validateSlugged(name, slug)
	if err != nil {
		return nil, err
	}

	c := &model.Category{Slugged: sl}
	if err := s.g.CreateCategory(ctx, c); err != nil {
		return nil, slugConflict(err, "category")
	}

	return c, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, slug string) error {
	return s.g.DeleteGenre(ctx, slug)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	return s.g.DeleteCategory(ctx, slug)
}

func (s *CatalogService) ListTitles(ctx context.Context, f store.TitleFilter, p store.Page) ([]RatedTitle, int64, error) {
	titles, count, err := s.g.ListTitles(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uint, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}

	ratings, err := s.ratings.RatingsOf(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]RatedTitle, len(titles))
	for i, t := range titles {
		out[i] = RatedTitle{Title: t}
		if r, ok := ratings[t.ID]; ok {
			out[i].Rating = &r
		}
	}

	return out, count, nil
}

func (s *CatalogService) GetTitle(ctx context.Context, id uint) (*RatedTitle, error) {
	t, err := s.g.FindTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	rating, err := s.ratings.RatingOf(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RatedTitle{Title: *t, Rating: rating}, nil
}

func (s *CatalogService) CreateTitle(ctx context.Context, in TitleInput) (*RatedTitle, error) {
	if err := s.validateTitle(in.Name, in.Year); err != nil {
		return nil, err
	}

	genres, err := s.genres(ctx, in.Genres)
	if err != nil {
		return nil, err
	}

	category, err := s.category(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	t := &model.Title{
		Name:        in.Name,
		Year:        in.Year,
		Description: in.Description,
		Genres:      genres,
		CategoryID:  &category.ID,
		Category:    category,
	}

	if err := s.g.CreateTitle(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create title, %w", err)
	}

	return &RatedTitle{Title: *t}, nil
}

func (s *CatalogService) UpdateTitle(ctx context.Context, id uint, p TitlePatch) (*RatedTitle, error) {
	t, err := s.g.FindTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		t.Name = *p.Name
	}

	if p.Year != nil {
		t.Year = *p.Year
	}

	if p.Description != nil {
		t.Description = *p.Description
	}

	if err := s.validateTitle(t.Name, t.Year); err != nil {
		return nil, err
	}

	if p.Genres != nil {
		if t.Genres, err = s.genres(ctx, *p.Genres); err != nil {
			return nil, err
		}
	}

	if p.Category != nil {
		if t.Category, err = s.category(ctx, *p.Category); err != nil {
			return nil, err
		}
		t.CategoryID = &t.Category.ID
	}

	if err := s.g.UpdateTitle(ctx, t, p.Genres != nil); err != nil {
		return nil, fmt.Errorf("failed to update title, %w", err)
	}

	return s.GetTitle(ctx, id)
}

// DeleteTitle removes the title with all of its reviews and their comments.
func (s *CatalogService) DeleteTitle(ctx context.Context, id uint) error {
	return s.g.DeleteTitle(ctx, id)
}

func (s *CatalogService) validateTitle(name string, year int) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name", "name can't be empty")
	}

	if utf8.RuneCountInString(name) > maxNameLen {
		return apperr.Validation("name", fmt.Sprintf("name can't be longer than %d characters", maxNameLen))
	}

	if err := validators.YearValidator(year, s.minYear, s.now()); err != nil {
		return apperr.Validation("year", err.Error())
	}

	return nil
}

func (s *CatalogService) genres(ctx context.Context, slugs []string) ([]model.Genre, error) {
	if len(slugs) == 0 {
		return nil, apperr.Validation("genre", "at least one genre is required")
	}

	slugs = slices.Compact(slices.Sorted(slices.Values(slugs)))

	genres, err := s.g.GenresBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}

	if len(genres) != len(slugs) {
		for _, slug := range slugs {
			if !slices.ContainsFunc(genres, func(g model.Genre) bool { return g.Slug == slug }) {
				return nil, apperr.Validation("genre", fmt.Sprintf("unknown genre %q", slug))
			}
		}
	}

	return genres, nil
}

func (s *CatalogService) category(ctx context.Context, slug string) (*model.Category, error) {
	if slug == "" {
		return nil, apperr.Validation("category", "category is required")
	}

	c, err := s.g.CategoryBySlug(ctx, slug)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Validation("category", fmt.Sprintf("unknown category %q", slug))
	}

	return c, err
}

func validateSlugged(name, slug string) (model.Slugged, error) {
	if strings.TrimSpace(name) == "" {
		return model.Slugged{}, apperr.Validation("name", "name can't be empty")
	}

	if utf8.RuneCountInString(name) > maxNameLen {
		return model.Slugged{}, apperr.Validation("name", fmt.Sprintf("name can't be longer than %d characters", maxNameLen))
	}

	if err := validators.SlugValidator(slug); err != nil {
		return model.Slugged{}, apperr.Validation("slug", err.Error())
	}

	return model.Slugged{Name: name, Slug: slug}, nil
}

func slugConflict(err error, resource string) error {
	if store.IsDuplicate(err) {
		return apperr.Conflict("slug", resource+" with this slug already exists")
	}

	return fmt.Errorf("failed to create %s, %w", resource, err)
}
