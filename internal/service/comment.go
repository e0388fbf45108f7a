package service

import (
	"bitwise74/rating-api/internal/authz"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/internal/store"
	"context"
	"fmt"
)

// CommentService manages comments under a review. Every call names the
// title too, and a review that isn't under that title is not found.
type CommentService struct {
	g *store.Graph
}

func NewCommentService(g *store.Graph) *CommentService {
	return &CommentService{g: g}
}

func (s *CommentService) List(ctx context.Context, titleID, reviewID uint, p store.Page) ([]model.Comment, int64, error) {
	if _, err := s.g.FindReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}

	return s.g.CommentsOf(ctx, reviewID, p)
}

func (s *CommentService) Get(ctx context.Context, titleID, reviewID, commentID uint) (*model.Comment, error) {
	if _, err := s.g.FindReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	return s.g.FindComment(ctx, reviewID, commentID)
}

func (s *CommentService) Create(ctx context.Context, actor authz.Actor, titleID, reviewID uint, text string) (*model.Comment, error) {
	if err := authz.Allow(actor, authz.ActionCreate, authz.ResourceComment); err != nil {
		return nil, err
	}

	if err := validateText(text); err != nil {
		return nil, err
	}

	if _, err := s.g.FindReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	c := &model.Comment{
		ReviewID: reviewID,
		Authored: model.Authored{
			Text:       text,
			AuthorID:   actor.UserID,
			AuthorName: actor.Username,
		},
	}

	if err := s.g.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment, %w", err)
	}

	return c, nil
}

func (s *CommentService) Update(ctx context.Context, actor authz.Actor, titleID, reviewID, commentID uint, text string) (*model.Comment, error) {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	if err := authz.AllowObject(actor, authz.ActionUpdate, c.AuthorID); err != nil {
		return nil, err
	}

	if err := validateText(text); err != nil {
		return nil, err
	}

	c.Text = text
	if err := s.g.UpdateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update comment, %w", err)
	}

	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, actor authz.Actor, titleID, reviewID, commentID uint) error {
	c, err := s.Get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}

	if err := authz.AllowObject(actor, authz.ActionDelete, c.AuthorID); err != nil {
		return err
	}

	return s.g.DeleteComment(ctx, c.ID)
}
