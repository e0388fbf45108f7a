// Package app builds the HTTP router and holds the handlers behind it
package app

import (
	"bitwise74/rating-api/app/auth"
	"bitwise74/rating-api/app/catalog"
	"bitwise74/rating-api/app/review"
	"bitwise74/rating-api/app/root"
	"bitwise74/rating-api/app/user"
	"bitwise74/rating-api/internal"
	"bitwise74/rating-api/internal/authz"
	"bitwise74/rating-api/pkg/middleware"
	"bitwise74/rating-api/pkg/validators"
	"errors"
	"fmt"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	CORSOrigins []string
	RateLimit   int           // requests per second per IP on the auth endpoints, 0 disables
	CacheTTL    time.Duration // 0 disables list caching
	RedisAddr   string        // in-memory cache when empty
	Turnstile   middleware.TurnstileConfig
}

func NewRouter(d *internal.Deps, cfg Config) (*gin.Engine, error) {
	if len(cfg.CORSOrigins) == 0 {
		return nil, errors.New("at least one CORS origin is required")
	}

	if err := validators.RegisterBinding(); err != nil {
		return nil, fmt.Errorf("failed to register validators, %w", err)
	}

	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	authn := middleware.NewAuthMiddleware(d.Tokens, d.Users)
	turnstile := middleware.NewTurnstileMiddleware(cfg.Turnstile)
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateLimit * 2,
	}).Handler()
	cacheList := listCache(cfg)

	catalogAccess := middleware.Require(authz.ResourceCatalog)
	userAdmin := middleware.Require(authz.ResourceUser)

	// HEAD /api/heartbeat 		-> Used to check if the server and its database are alive
	router.HEAD("/api/heartbeat", func(c *gin.Context) { root.Heartbeat(c, d) })

	v1 := router.Group("/api/v1", middleware.BodySizeLimiter(1<<20), authn)

	a := v1.Group("/auth", rateLimiter)
	{
		// POST /api/v1/auth/signup	-> Registers a user or resends their confirmation code
		a.POST("/signup", turnstile, func(c *gin.Context) { auth.Signup(c, d) })

		// POST /api/v1/auth/token	-> Exchanges a confirmation code for an access token
		a.POST("/token", func(c *gin.Context) { auth.Token(c, d) })
	}

	u := v1.Group("/users")
	{
		// GET /api/v1/users/me		-> Returns the caller's profile
		u.GET("/me", middleware.RequireAuth(), user.Me)

		// PATCH /api/v1/users/me	-> Edits the caller's profile, role excluded
		u.PATCH("/me", middleware.RequireAuth(), func(c *gin.Context) { user.UpdateMe(c, d) })

		// GET /api/v1/users		-> Lists users, ?search= filters by username
		u.GET("", userAdmin, func(c *gin.Context) { user.List(c, d) })

		// POST /api/v1/users		-> Creates a user
		u.POST("", userAdmin, func(c *gin.Context) { user.Create(c, d) })

		// GET /api/v1/users/:username	-> Returns a user
		u.GET("/:username", userAdmin, func(c *gin.Context) { user.Get(c, d) })

		// PATCH /api/v1/users/:username	-> Edits a user, role included
		u.PATCH("/:username", userAdmin, func(c *gin.Context) { user.Update(c, d) })

		// DELETE /api/v1/users/:username	-> Deletes a user with everything they wrote
		u.DELETE("/:username", userAdmin, func(c *gin.Context) { user.Delete(c, d) })
	}

	g := v1.Group("/genres", catalogAccess)
	{
		g.GET("", cacheList, func(c *gin.Context) { catalog.ListGenres(c, d) })
		g.POST("", func(c *gin.Context) { catalog.CreateGenre(c, d) })
		g.DELETE("/:slug", func(c *gin.Context) { catalog.DeleteGenre(c, d) })
	}

	cat := v1.Group("/categories", catalogAccess)
	{
		cat.GET("", cacheList, func(c *gin.Context) { catalog.ListCategories(c, d) })
		cat.POST("", func(c *gin.Context) { catalog.CreateCategory(c, d) })
		cat.DELETE("/:slug", func(c *gin.Context) { catalog.DeleteCategory(c, d) })
	}

	t := v1.Group("/titles")
	{
		t.GET("", func(c *gin.Context) { catalog.ListTitles(c, d) })
		t.POST("", catalogAccess, func(c *gin.Context) { catalog.CreateTitle(c, d) })
		t.GET("/:title_id", func(c *gin.Context) { catalog.GetTitle(c, d) })
		t.PATCH("/:title_id", catalogAccess, func(c *gin.Context) { catalog.UpdateTitle(c, d) })
		t.DELETE("/:title_id", catalogAccess, func(c *gin.Context) { catalog.DeleteTitle(c, d) })
	}

	// Ownership is checked by the services once the review or comment is loaded
	r := t.Group("/:title_id/reviews", middleware.Require(authz.ResourceReview))
	{
		r.GET("", func(c *gin.Context) { review.List(c, d) })
		r.POST("", func(c *gin.Context) { review.Create(c, d) })
		r.GET("/:review_id", func(c *gin.Context) { review.Get(c, d) })
		r.PATCH("/:review_id", func(c *gin.Context) { review.Update(c, d) })
		r.DELETE("/:review_id", func(c *gin.Context) { review.Delete(c, d) })
	}

	cm := r.Group("/:review_id/comments", middleware.Require(authz.ResourceComment))
	{
		cm.GET("", func(c *gin.Context) { review.ListComments(c, d) })
		cm.POST("", func(c *gin.Context) { review.CreateComment(c, d) })
		cm.GET("/:comment_id", func(c *gin.Context) { review.GetComment(c, d) })
		cm.PATCH("/:comment_id", func(c *gin.Context) { review.UpdateComment(c, d) })
		cm.DELETE("/:comment_id", func(c *gin.Context) { review.DeleteComment(c, d) })
	}

	return router, nil
}

// listCache caches slow changing lists by request URI, in redis when
// configured and in memory otherwise.
func listCache(cfg Config) gin.HandlerFunc {
	if cfg.CacheTTL <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var store persist.CacheStore
	if cfg.RedisAddr != "" {
		store = persist.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	} else {
		store = persist.NewMemoryStore(cfg.CacheTTL)
	}

	return cache.CacheByRequestURI(store, cfg.CacheTTL)
}
