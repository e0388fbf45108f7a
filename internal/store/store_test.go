package store

import (
	"bitwise74/rating-api/internal/apperr"
	"bitwise74/rating-api/internal/model"
	"bitwise74/rating-api/internal/testutil"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateReview_UniqueIndex(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	title := testutil.Title(t, gdb, "Dune", 1965)

	first := &model.Review{TitleID: title.ID, Score: 8, Authored: model.Authored{Text: "good", AuthorID: ann.ID}}
	require.NoError(t, g.CreateReview(ctx, first))

	second := &model.Review{TitleID: title.ID, Score: 3, Authored: model.Authored{Text: "changed my mind", AuthorID: ann.ID}}
	err := g.CreateReview(ctx, second)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err))
}

func TestFindReview(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	dune := testutil.Title(t, gdb, "Dune", 1965)
	solaris := testutil.Title(t, gdb, "Solaris", 1961)
	r := testutil.Review(t, gdb, ann, dune, 9)

	t.Run("Should join the author name", func(t *testing.T) {
		got, err := g.FindReview(ctx, dune.ID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, "ann", got.AuthorName)
		assert.Equal(t, 9, got.Score)
	})

	t.Run("Should not find a review under another title", func(t *testing.T) {
		_, err := g.FindReview(ctx, solaris.ID, r.ID)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestAverageScore(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	title := testutil.Title(t, gdb, "Dune", 1965)
	empty := testutil.Title(t, gdb, "Solaris", 1961)

	for i, score := range []int{10, 7, 8} {
		u := testutil.User(t, gdb, []string{"ann", "bob", "cid"}[i], model.RoleUser)
		testutil.Review(t, gdb, u, title, score)
	}

	avg, err := g.AverageScore(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 25.0/3.0, *avg, 1e-9)

	avg, err = g.AverageScore(ctx, empty.ID)
	require.NoError(t, err)
	assert.Nil(t, avg)

	all, err := g.AverageScores(ctx, []uint{title.ID, empty.ID})
	require.NoError(t, err)
	assert.InDelta(t, 25.0/3.0, all[title.ID], 1e-9)
	_, ok := all[empty.ID]
	assert.False(t, ok)
}

func TestDeleteTitle_Cascades(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	title := testutil.Title(t, gdb, "Dune", 1965)
	r := testutil.Review(t, gdb, ann, title, 9)
	testutil.Comment(t, gdb, ann, r)

	require.NoError(t, g.DeleteTitle(ctx, title.ID))

	var reviews, comments int64
	require.NoError(t, gdb.Model(model.Review{}).Count(&reviews).Error)
	require.NoError(t, gdb.Model(model.Comment{}).Count(&comments).Error)
	assert.Zero(t, reviews)
	assert.Zero(t, comments)

	err := g.DeleteTitle(ctx, title.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteReview_Cascades(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	title := testutil.Title(t, gdb, "Dune", 1965)
	r := testutil.Review(t, gdb, ann, title, 9)
	testutil.Comment(t, gdb, ann, r)

	require.NoError(t, g.DeleteReview(ctx, r.ID))

	_, count, err := g.CommentsOf(ctx, r.ID, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteCategory_KeepsTitles(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	books := &model.Category{Slugged: model.Slugged{Name: "Books", Slug: "books"}}
	require.NoError(t, g.CreateCategory(ctx, books))

	title := &model.Title{Name: "Dune", Year: 1965, CategoryID: &books.ID}
	require.NoError(t, g.CreateTitle(ctx, title))

	require.NoError(t, g.DeleteCategory(ctx, "books"))

	got, err := g.FindTitle(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
}

func TestListTitles_Filters(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	scifi := &model.Genre{Slugged: model.Slugged{Name: "Sci-Fi", Slug: "sci-fi"}}
	drama := &model.Genre{Slugged: model.Slugged{Name: "Drama", Slug: "drama"}}
	require.NoError(t, g.CreateGenre(ctx, scifi))
	require.NoError(t, g.CreateGenre(ctx, drama))

	books := &model.Category{Slugged: model.Slugged{Name: "Books", Slug: "books"}}
	require.NoError(t, g.CreateCategory(ctx, books))

	dune := &model.Title{Name: "Dune", Year: 1965, CategoryID: &books.ID, Genres: []model.Genre{*scifi, *drama}}
	require.NoError(t, g.CreateTitle(ctx, dune))
	heat := &model.Title{Name: "Heat", Year: 1995, Genres: []model.Genre{*drama}}
	require.NoError(t, g.CreateTitle(ctx, heat))

	cases := []struct {
		name   string
		filter TitleFilter
		want   []string
	}{
		{"no filter", TitleFilter{}, []string{"Dune", "Heat"}},
		{"genre", TitleFilter{Genre: "sci-fi"}, []string{"Dune"}},
		{"shared genre", TitleFilter{Genre: "drama"}, []string{"Dune", "Heat"}},
		{"category", TitleFilter{Category: "books"}, []string{"Dune"}},
		{"year", TitleFilter{Year: 1995}, []string{"Heat"}},
		{"name", TitleFilter{Name: "Heat"}, []string{"Heat"}},
		{"no match", TitleFilter{Genre: "horror"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			titles, count, err := g.ListTitles(ctx, tc.filter, Page{Number: 1, Size: 10})
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.want), count)

			var names []string
			for _, title := range titles {
				names = append(names, title.Name)
			}
			assert.Equal(t, tc.want, names)
		})
	}

	t.Run("Should preload genres and category", func(t *testing.T) {
		got, err := g.FindTitle(ctx, dune.ID)
		require.NoError(t, err)
		require.Len(t, got.Genres, 2)
		assert.Equal(t, "sci-fi", got.Genres[0].Slug)
		require.NotNil(t, got.Category)
		assert.Equal(t, "books", got.Category.Slug)
	})

	t.Run("Should paginate", func(t *testing.T) {
		titles, count, err := g.ListTitles(ctx, TitleFilter{}, Page{Number: 2, Size: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
		require.Len(t, titles, 1)
		assert.Equal(t, "Heat", titles[0].Name)
	})
}

func TestDeleteUser_RemovesAuthoredContent(t *testing.T) {
	gdb := testutil.NewDB(t)
	g := New(gdb)
	ctx := context.Background()

	ann := testutil.User(t, gdb, "ann", model.RoleUser)
	bob := testutil.User(t, gdb, "bob", model.RoleUser)
	title := testutil.Title(t, gdb, "Dune", 1965)

	annReview := testutil.Review(t, gdb, ann, title, 9)
	bobReview := testutil.Review(t, gdb, bob, title, 4)
	testutil.Comment(t, gdb, bob, annReview)
	keep := testutil.Comment(t, gdb, bob, bobReview)
	testutil.Comment(t, gdb, ann, bobReview)

	require.NoError(t, g.DeleteUser(ctx, ann.ID))

	var comments []model.Comment
	require.NoError(t, gdb.Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, keep.ID, comments[0].ID)

	_, err := g.UserByID(ctx, ann.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.ErrorIs(t, gdb.Where("id = ?", annReview.ID).First(&model.Review{}).Error, gorm.ErrRecordNotFound)
}
