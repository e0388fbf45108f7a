package service

import (
	"bitwise74/rating-api/internal/store"
	"context"
)

// RatingAggregator computes title ratings on read. Nothing is cached or
// stored, a rating always reflects the current reviews.
type RatingAggregator struct {
	g *store.Graph
}

func NewRatingAggregator(g *store.Graph) *RatingAggregator {
	return &RatingAggregator{g: g}
}

// RatingOf returns the mean review score of a title, nil if it has no reviews.
func (r *RatingAggregator) RatingOf(ctx context.Context, titleID uint) (*float64, error) {
	return r.g.AverageScore(ctx, titleID)
}

// RatingsOf returns ratings for a page of titles. Unrated titles are missing
// from the map.
func (r *RatingAggregator) RatingsOf(ctx context.Context, titleIDs []uint) (map[uint]float64, error) {
	return r.g.AverageScores(ctx, titleIDs)
}
