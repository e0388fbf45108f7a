package internal

import (
	"bitwise74/rating-api/internal/identity"
	"bitwise74/rating-api/internal/service"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/pkg/security"
	"time"

	"gorm.io/gorm"
)

// Deps is everything a handler may need
type Deps struct {
	DB       *gorm.DB
	Graph    *store.Graph
	Users    *identity.Registry
	Tokens   *security.AccessTokens
	Auth     *service.AuthService
	Reviews  *service.ReviewService
	Comments *service.CommentService
	Catalog  *service.CatalogService
	Ratings  *service.RatingAggregator
	PageSize int
}

type Options struct {
	Secret   string
	TokenTTL time.Duration
	CodeTTL  time.Duration
	MinYear  int
	PageSize int
	Mailer   service.Mailer
}

// NewDeps wires the services on top of an open database.
func NewDeps(db *gorm.DB, o Options) (*Deps, error) {
	codes, err := security.NewConfirmationCodes(o.Secret, o.CodeTTL)
	if err != nil {
		return nil, err
	}

	tokens, err := security.NewAccessTokens(o.Secret, o.TokenTTL)
	if err != nil {
		return nil, err
	}

	g := store.New(db)
	users := identity.New(g)
	ratings := service.NewRatingAggregator(g)

	return &Deps{
		DB:       db,
		Graph:    g,
		Users:    users,
		Tokens:   tokens,
		Auth:     service.NewAuthService(users, codes, tokens, o.Mailer),
		Reviews:  service.NewReviewService(g),
		Comments: service.NewCommentService(g),
		Catalog:  service.NewCatalogService(g, ratings, o.MinYear),
		Ratings:  ratings,
		PageSize: o.PageSize,
	}, nil
}
