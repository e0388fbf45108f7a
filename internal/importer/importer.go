// Package importer bulk loads the catalog and its reviews from CSV files,
// either from a local directory or from an S3 prefix.
package importer

import (
	"bitwise74/rating-api/internal/model"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxFileSize = 32 << 20
	batchSize   = 500
)

// Source opens the named CSV file. Missing files must wrap fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Dir is a Source reading from a local directory.
type Dir string

func (d Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(d), name))
}

type row map[string]string

// file is one CSV file and how its rows become records. Files load in order
// so that references always point at rows that already exist.
type file struct {
	name string
	load func(tx *gorm.DB, rows []row) (int, error)
}

var files = []file{
	{"users.csv", loadUsers},
	{"category.csv", loadCategories},
	{"genre.csv", loadGenres},
	{"titles.csv", loadTitles},
	{"genre_title.csv", loadGenreTitles},
	{"review.csv", loadReviews},
	{"comments.csv", loadComments},
}

type Importer struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// Run loads every known file from src. Rows that already exist are skipped,
// so running twice is harmless. Missing files are skipped with a warning, a
// broken file doesn't stop the others.
func (im *Importer) Run(ctx context.Context, src Source) (map[string]int, error) {
	report := make(map[string]int, len(files))

	var errs []error
	for _, f := range files {
		n, err := im.loadFile(ctx, src, f)
		if errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("Import file missing, skipping", zap.String("file", f.name))
			continue
		}

		if err != nil {
			zap.L().Error("Failed to import file", zap.String("file", f.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
			continue
		}

		report[f.name] = n
		zap.L().Info("Imported file", zap.String("file", f.name), zap.Int("rows", n))
	}

	if err := im.resetSequences(ctx); err != nil {
		errs = append(errs, err)
	}

	return report, errors.Join(errs...)
}

func (im *Importer) loadFile(ctx context.Context, src Source, f file) (int, error) {
	rc, err := src.Open(ctx, f.name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxFileSize+1))
	if err != nil {
		return 0, fmt.Errorf("failed to read file, %w", err)
	}

	if len(data) > maxFileSize {
		return 0, errors.New("file is too large")
	}

	if !isText(data) {
		return 0, fmt.Errorf("not a CSV file, detected %s", mimetype.Detect(data).String())
	}

	rows, err := parse(data)
	if err != nil {
		return 0, err
	}

	var n int
	err = im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err = f.load(tx.Clauses(clause.OnConflict{DoNothing: true}), rows)
		return err
	})

	return n, err
}

func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}

	return false
}

func parse(data []byte) ([]row, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV, %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]row, 0, len(records)-1)

	for _, rec := range records[1:] {
		rw := make(row, len(header))
		for i, col := range header {
			rw[strings.TrimSpace(col)] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rw)
	}

	return rows, nil
}

// resetSequences moves postgres id sequences past imported ids. SQLite
// picks the next rowid from the table itself.
func (im *Importer) resetSequences(ctx context.Context) error {
	if im.db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, table := range []string{"categories", "genres", "titles", "reviews", "comments"} {
		err := im.db.WithContext(ctx).Exec(
			fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 1)) FROM %[1]s", table),
		).Error
		if err != nil {
			return fmt.Errorf("failed to reset %s sequence, %w", table, err)
		}
	}

	return nil
}

func (r row) asUint(col string) (uint, error) {
	v, err := strconv.ParseUint(r[col], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}

	return uint(v), nil
}

func (r row) asInt(col string) (int, error) {
	v, err := strconv.Atoi(r[col])
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", col, err)
	}

	return v, nil
}

func (r row) asTime(col string) (time.Time, error) {
	if r[col] == "" {
		return time.Now(), nil
	}

	t, err := time.Parse(time.RFC3339Nano, r[col])
	if err != nil {
		return time.Time{}, fmt.Errorf("column %s: %w", col, err)
	}

	return t, nil
}

func loadUsers(tx *gorm.DB, rows []row) (int, error) {
	users := make([]model.User, 0, len(rows))

	for _, r := range rows {
		role := model.Role(r["role"])
		if role == "" {
			role = model.RoleUser
		}

		if !role.Valid() {
			return 0, fmt.Errorf("user %s has unknown role %q", r["username"], role)
		}

		users = append(users, model.User{
			ID:        r["id"],
			Username:  r["username"],
			Email:     r["email"],
			FirstName: r["first_name"],
			LastName:  r["last_name"],
			Bio:       r["bio"],
			Role:      role,
			Stamp:     gonanoid.Must(32),
		})
	}

	return create(tx, users)
}

func loadCategories(tx *gorm.DB, rows []row) (int, error) {
	categories := make([]model.Category, 0, len(rows))

	for _, r := range rows {
		id, err := r.asUint("id")
		if err != nil {
			return 0, err
		}

		categories = append(categories, model.Category{ID: id, Slugged: model.Slugged{Name: r["name"], Slug: r["slug"]}})
	}

	return create(tx, categories)
}

func loadGenres(tx *gorm.DB, rows []row) (int, error) {
	genres := make([]model.Genre, 0, len(rows))

	for _, r := range rows {
		id, err := r.asUint("id")
		if err != nil {
			return 0, err
		}

		genres = append(genres, model.Genre{ID: id, Slugged: model.Slugged{Name: r["name"], Slug: r["slug"]}})
	}

	return create(tx, genres)
}

func loadTitles(tx *gorm.DB, rows []row) (int, error) {
	titles := make([]model.Title, 0, len(rows))

	for _, r := range rows {
		id, err := r.asUint("id")
		if err != nil {
			return 0, err
		}

		year, err := r.asInt("year")
		if err != nil {
			return 0, err
		}

		t := model.Title{ID: id, Name: r["name"], Year: year, Description: r["description"]}
		if r["category"] != "" {
			category, err := r.asUint("category")
			if err != nil {
				return 0, err
			}
			t.CategoryID = &category
		}

		titles = append(titles, t)
	}

	return create(tx.Omit("Genres", "Category"), titles)
}

func loadGenreTitles(tx *gorm.DB, rows []row) (int, error) {
	links := make([]map[string]any, 0, len(rows))

	for _, r := range rows {
		titleID, err := r.asUint("title_id")
		if err != nil {
			return 0, err
		}

		genreID, err := r.asUint("genre_id")
		if err != nil {
			return 0, err
		}

		links = append(links, map[string]any{"title_id": titleID, "genre_id": genreID})
	}

	if len(links) == 0 {
		return 0, nil
	}

	res := tx.Table("title_genres").CreateInBatches(links, batchSize)
	return int(res.RowsAffected), res.Error
}

func loadReviews(tx *gorm.DB, rows []row) (int, error) {
	reviews := make([]model.Review, 0, len(rows))

	for _, r := range rows {
		id, err := r.asUint("id")
		if err != nil {
			return 0, err
		}

		titleID, err := r.asUint("title_id")
		if err != nil {
			return 0, err
		}

		score, err := r.asInt("score")
		if err != nil {
			return 0, err
		}

		if score < 1 || score > 10 {
			return 0, fmt.Errorf("review %d has score %d out of range", id, score)
		}

		created, err := r.asTime("pub_date")
		if err != nil {
			return 0, err
		}

		reviews = append(reviews, model.Review{
			ID:       id,
			TitleID:  titleID,
			Score:    score,
			Authored: model.Authored{Text: r["text"], AuthorID: r["author"], CreatedAt: created},
		})
	}

	return create(tx, reviews)
}

func loadComments(tx *gorm.DB, rows []row) (int, error) {
	comments := make([]model.Comment, 0, len(rows))

	for _, r := range rows {
		id, err := r.asUint("id")
		if err != nil {
			return 0, err
		}

		reviewID, err := r.asUint("review_id")
		if err != nil {
			return 0, err
		}

		created, err := r.asTime("pub_date")
		if err != nil {
			return 0, err
		}

		comments = append(comments, model.Comment{
			ID:       id,
			ReviewID: reviewID,
			Authored: model.Authored{Text: r["text"], AuthorID: r["author"], CreatedAt: created},
		})
	}

	return create(tx, comments)
}

func create[T any](tx *gorm.DB, records []T) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	res := tx.CreateInBatches(records, batchSize)
	return int(res.RowsAffected), res.Error
}
