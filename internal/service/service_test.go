package service

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/authz"
	"bitwise74/rating-api/internal/identity"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/internal/store"
	"bitwise74/rating-api/internal/testutil"
	"bitwise74/rating-api/pkg/security"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *store.Graph) {
	t.Helper()

	gdb := testutil.NewDB(t)
	return gdb, store.New(gdb)
}

func TestReviewCreate_OnePerAuthor(t *testing.T) {
	gdb, g := setup(t)
	reviews := NewReviewService(g)
	ctx := context.Background()

	ann := authz.ActorFor(testutil.User(t, gdb, "ann", model.RoleUser))
	title := testutil.Title(t, gdb, "Dune", 1965)

	const n = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
		others    []error
	)

	for i := range n {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()

			_, err := reviews.Create(ctx, ann, title.ID, "my take", score)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				created++
			case apperr.Is(err, apperr.KindConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i%10 + 1)
	}

	wg.Wait()

	assert.Empty(t, others)
	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)
}

func TestReviewCreate_Validation(t *testing.T) {
	gdb, g := setup(t)
	reviews := NewReviewService(g)
	ctx := context.Background()

	title := testutil.Title(t, gdb, "Dune", 1965)

	t.Run("Should reject scores outside 1..10", func(t *testing.T) {
		ann := authz.ActorFor(testutil.User(t, gdb, "ann", model.RoleUser))

		for _, score := range []int{0, 11} {
			_, err := reviews.Create(ctx, ann, title.ID, "text", score)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "score %d", score)
		}
	})

	t.Run("Should accept the bounds", func(t *testing.T) {
		for i, score := range []int{1, 10} {
			u := testutil.User(t, gdb, []string{"low", "high"}[i], model.RoleUser)

			r, err := reviews.Create(ctx, authz.ActorFor(u), title.ID, "text", score)
			require.NoError(t, err)
			assert.Equal(t, score, r.Score)
			assert.Equal(t, u.Username, r.AuthorName)
		}
	})

	t.Run("Should reject empty text", func(t *testing.T) {
		u := authz.ActorFor(testutil.User(t, gdb, "blank", model.RoleUser))

		_, err := reviews.Create(ctx, u, title.ID, "  ", 5)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("Should report a missing title", func(t *testing.T) {
		u := authz.ActorFor(testutil.User(t, gdb, "lost", model.RoleUser))

		_, err := reviews.Create(ctx, u, title.ID+100, "text", 5)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("Should reject anonymous authors", func(t *testing.T) {
		_, err := reviews.Create(ctx, authz.Actor{}, title.ID, "text", 5)
		assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	})
}

func TestReviewUpdate_Ownership(t *testing.T) {
	gdb, g := setup(t)
	reviews := NewReviewService(g)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	bob := testutil.User(t, gdb, "bob", model.RoleUser)
	mod := testutil.User(t, gdb, "mod", model.RoleModerator)
	title := testutil.Title(t, gdb, "Dune", 1965)
	r := testutil.Review(t, gdb, ann, title, 5)

	score := 7

	_, err := reviews.Update(ctx, authz.ActorFor(bob), title.ID, r.ID, ReviewPatch{Score: &score})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err := reviews.Update(ctx, authz.ActorFor(mod), title.ID, r.ID, ReviewPatch{Score: &score})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Score)
	assert.Equal(t, "ann", got.AuthorName)

	bad := 0
	_, err = reviews.Update(ctx, authz.ActorFor(ann), title.ID, r.ID, ReviewPatch{Score: &bad})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.True(t, apperr.Is(reviews.Delete(ctx, authz.ActorFor(bob), title.ID, r.ID), apperr.KindForbidden))
	assert.NoError(t, reviews.Delete(ctx, authz.ActorFor(ann), title.ID, r.ID))
}

func TestRatingAggregator(t *testing.T) {
	gdb, g := setup(t)
	reviews := NewReviewService(g)
	ratings := NewRatingAggregator(g)
	ctx := context.Background()

	title := testutil.Title(t, gdb, "Dune", 1965)

	rating, err := ratings.RatingOf(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, rating)

	ann := authz.ActorFor(testutil.User(t, gdb, "ann", model.RoleUser))
	bob := authz.ActorFor(testutil.User(t, gdb, "bob", model.RoleUser))

	first, err := reviews.Create(ctx, ann, title.ID, "great", 9)
	require.NoError(t, err)

	rating, err = ratings.RatingOf(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, 9.0, *rating)

	second, err := reviews.Create(ctx, bob, title.ID, "fine", 6)
	require.NoError(t, err)

	rating, err = ratings.RatingOf(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, rating)
	assert.Equal(t, 7.5, *rating)

	require.NoError(t, reviews.Delete(ctx, ann, title.ID, first.ID))
	require.NoError(t, reviews.Delete(ctx, bob, title.ID, second.ID))

	rating, err = ratings.RatingOf(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, rating)
}

func TestCommentService(t *testing.T) {
	gdb, g := setup(t)
	comments := NewCommentService(g)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	bob := testutil.User(t, gdb, "bob", model.RoleUser)
	dune := testutil.Title(t, gdb, "Dune", 1965)
	heat := testutil.Title(t, gdb, "Heat", 1995)
	r := testutil.Review(t, gdb, ann, dune, 8)

	c, err := comments.Create(ctx, authz.ActorFor(bob), dune.ID, r.ID, "agreed")
	require.NoError(t, err)
	assert.Equal(t, "bob", c.AuthorName)

	t.Run("Should not find the review under another title", func(t *testing.T) {
		_, err := comments.Create(ctx, authz.ActorFor(bob), heat.ID, r.ID, "agreed")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		_, _, err = comments.List(ctx, heat.ID, r.ID, store.Page{Number: 1, Size: 10})
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("Should only let the author edit", func(t *testing.T) {
		_, err := comments.Update(ctx, authz.ActorFor(ann), dune.ID, r.ID, c.ID, "edited")
		assert.True(t, apperr.Is(err, apperr.KindForbidden))

		got, err := comments.Update(ctx, authz.ActorFor(bob), dune.ID, r.ID, c.ID, "edited")
		require.NoError(t, err)
		assert.Equal(t, "edited", got.Text)
	})

	t.Run("Should list and delete", func(t *testing.T) {
		list, count, err := comments.List(ctx, dune.ID, r.ID, store.Page{Number: 1, Size: 10})
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
		require.Len(t, list, 1)
		assert.Equal(t, "bob", list[0].AuthorName)

		require.NoError(t, comments.Delete(ctx, authz.ActorFor(bob), dune.ID, r.ID, c.ID))

		_, err = comments.Get(ctx, dune.ID, r.ID, c.ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestCatalogService_Titles(t *testing.T) {
	_, g := setup(t)
	catalog := NewCatalogService(g, NewRatingAggregator(g), 1800)
	catalog.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := catalog.CreateGenre(ctx, "Drama", "drama")
	require.NoError(t, err)
	_, err = catalog.CreateCategory(ctx, "Films", "films")
	require.NoError(t, err)

	t.Run("Should reject duplicate slugs", func(t *testing.T) {
		_, err := catalog.CreateGenre(ctx, "Drama again", "drama")
		assert.True(t, apperr.Is(err, apperr.KindConflict))

		_, err = catalog.CreateCategory(ctx, "Films", "Not A Slug")
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("Should accept the current year and reject the next", func(t *testing.T) {
		title, err := catalog.CreateTitle(ctx, TitleInput{Name: "New", Year: 2026, Genres: []string{"drama"}, Category: "films"})
		require.NoError(t, err)
		assert.Nil(t, title.Rating)
		require.Len(t, title.Genres, 1)
		require.NotNil(t, title.Category)

		_, err = catalog.CreateTitle(ctx, TitleInput{Name: "Future", Year: 2027, Genres: []string{"drama"}, Category: "films"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = catalog.CreateTitle(ctx, TitleInput{Name: "Ancient", Year: 1799, Genres: []string{"drama"}, Category: "films"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("Should reject unknown genres and categories", func(t *testing.T) {
		_, err := catalog.CreateTitle(ctx, TitleInput{Name: "X", Year: 2000, Genres: []string{"drama", "horror"}, Category: "films"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = catalog.CreateTitle(ctx, TitleInput{Name: "X", Year: 2000, Genres: []string{"drama"}, Category: "books"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		_, err = catalog.CreateTitle(ctx, TitleInput{Name: "X", Year: 2000, Category: "films"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("Should patch a title", func(t *testing.T) {
		title, err := catalog.CreateTitle(ctx, TitleInput{Name: "Old", Year: 1990, Genres: []string{"drama"}, Category: "films"})
		require.NoError(t, err)

		name := "Renamed"
		year := 2027
		_, err = catalog.UpdateTitle(ctx, title.ID, TitlePatch{Year: &year})
		assert.True(t, apperr.Is(err, apperr.KindValidation))

		got, err := catalog.UpdateTitle(ctx, title.ID, TitlePatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, 1990, got.Year)
		assert.Len(t, got.Genres, 1)
	})
}

func TestAuthService(t *testing.T) {
	gdb, g := setup(t)
	users := identity.New(g)
	mailer := &testutil.Mailer{}

	codes, err := security.NewConfirmationCodes("secret", time.Hour)
	require.NoError(t, err)
	tokens, err := security.NewAccessTokens("secret", time.Hour)
	require.NoError(t, err)

	auth := NewAuthService(users, codes, tokens, mailer)
	ctx := context.Background()

	t.Run("Should exchange a mailed code once", func(t *testing.T) {
		u, err := auth.Signup(ctx, "ann", "ann@example.com")
		require.NoError(t, err)

		code := mailer.Code(t, "ann@example.com")

		token, _, err := auth.Exchange(ctx, "ann", code)
		require.NoError(t, err)

		sub, err := tokens.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, sub)

		_, _, err = auth.Exchange(ctx, "ann", code)
		assert.True(t, apperr.Is(err, apperr.KindInvalidCode))
	})

	t.Run("Should mint one token for concurrent exchanges of a code", func(t *testing.T) {
		_, err := auth.Signup(ctx, "dana", "dana@example.com")
		require.NoError(t, err)

		code := mailer.Code(t, "dana@example.com")

		const n = 6

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			minted  int
			invalid int
		)

		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()

				_, _, err := auth.Exchange(ctx, "dana", code)

				mu.Lock()
				defer mu.Unlock()

				switch {
				case err == nil:
					minted++
				case apperr.Is(err, apperr.KindInvalidCode):
					invalid++
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, 1, minted)
		assert.Equal(t, n-1, invalid)
	})

	t.Run("Should invalidate codes when the user changes", func(t *testing.T) {
		u, err := auth.Signup(ctx, "bob", "bob@example.com")
		require.NoError(t, err)

		code := mailer.Code(t, "bob@example.com")

		bio := "changed"
		_, err = users.UpdateSelf(ctx, u, identity.Patch{Bio: &bio})
		require.NoError(t, err)

		_, _, err = auth.Exchange(ctx, "bob", code)
		assert.True(t, apperr.Is(err, apperr.KindInvalidCode))
	})

	t.Run("Should resend for the same pair", func(t *testing.T) {
		before := len(mailer.Sent)

		_, err := auth.Signup(ctx, "ann", "ann@example.com")
		require.NoError(t, err)
		assert.Len(t, mailer.Sent, before+1)

		var count int64
		require.NoError(t, gdb.Model(model.User{}).Where("username = ?", "ann").Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("Should report unknown users", func(t *testing.T) {
		_, _, err := auth.Exchange(ctx, "nobody", "0123456789abcdef0123456789abcdef")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	t.Run("Should surface mail failures as unavailable", func(t *testing.T) {
		failing := NewAuthService(users, codes, tokens, &testutil.Mailer{Err: errors.New("smtp down")})

		_, err := failing.Signup(ctx, "carl", "carl@example.com")
		assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	})
}

func TestSMTPMailer(t *testing.T) {
	m := NewSMTPMailer(MailConfig{Host: "smtp.invalid", Port: 587, From: "noreply@example.com"})

	t.Run("Should not dial for a cancelled request", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := m.Send(ctx, "ann@example.com", "subject", "body")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Should accept the sender's own address as recipient", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Only the cancelled context stops it, the address is not rejected
		err := m.Send(ctx, "noreply@example.com", "subject", "body")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
