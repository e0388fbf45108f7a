package service

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/authz"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/pkg/validators"
	"context"
	"fmt"
	"strings"
)

// ReviewPatch holds the optional fields of a review update.
type ReviewPatch struct {
	Text  *string
	Score *int
}

type ReviewService struct {
	g *store.Graph
}

func NewReviewService(g *store.Graph) *ReviewService {
	return &ReviewService{g: g}
}

func (s *ReviewService) List(ctx context.Context, titleID uint, p store.Page) ([]model.Review, int64, error) {
	if err := s.g.TitleExists(ctx, titleID); err != nil {
		return nil, 0, err
	}

	return s.g.ReviewsOf(ctx, titleID, p)
}

func (s *ReviewService) Get(ctx context.Context, titleID, reviewID uint) (*model.Review, error) {
	return s.g.FindReview(ctx, titleID, reviewID)
}

// Create adds the actor's review of a title. Only the unique index on
// (author, title) decides whether a review already exists, so concurrent
// creates for the same pair yield exactly one row.
func (s *ReviewService) Create(ctx context.Context, actor authz.Actor, titleID uint, text string, score int) (*model.Review, error) {
	if err := authz.Allow(actor, authz.ActionCreate, authz.ResourceReview); err != nil {
		return nil, err
	}

	if err := validateText(text); err != nil {
		return nil, err
	}

	if err := validators.ScoreValidator(score); err != nil {
		return nil, apperr.Validation("score", err.Error())
	}

	if err := s.g.TitleExists(ctx, titleID); err != nil {
		return nil, err
	}

	r := &model.Review{
		TitleID: titleID,
		Score:   score,
		Authored: model.Authored{
			Text:       text,
			AuthorID:   actor.UserID,
			AuthorName: actor.Username,
		},
	}

	if err := s.g.CreateReview(ctx, r); err != nil {
		if store.IsDuplicate(err) {
			return nil, apperr.Conflict("title", "you have already reviewed this title")
		}

		return nil, fmt.Errorf("failed to create review, %w", err)
	}

	return r, nil
}

func (s *ReviewService) Update(ctx context.Context, actor authz.Actor, titleID, reviewID uint, p ReviewPatch) (*model.Review, error) {
	r, err := s.g.FindReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	if err := authz.AllowObject(actor, authz.ActionUpdate, r.AuthorID); err != nil {
		return nil, err
	}

	if p.Text != nil {
		if err := validateText(*p.Text); err != nil {
			return nil, err
		}
		r.Text = *p.Text
	}

	if p.Score != nil {
		if err := validators.ScoreValidator(*p.Score); err != nil {
			return nil, apperr.Validation("score", err.Error())
		}
		r.Score = *p.Score
	}

	if err := s.g.UpdateReview(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update review, %w", err)
	}

	return r, nil
}

// Delete removes the review and every comment under it.
func (s *ReviewService) Delete(ctx context.Context, actor authz.Actor, titleID, reviewID uint) error {
	r, err := s.g.FindReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}

	if err := authz.AllowObject(actor, authz.ActionDelete, r.AuthorID); err != nil {
		return err
	}

	return s.g.DeleteReview(ctx, r.ID)
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperr.Validation("text", "text can't be empty")
	}

	return nil
}
