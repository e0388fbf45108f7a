package validators

import (
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

const (
	MinScore = 1
	MaxScore = 10

	maxSlugLen = 50
)

var (
	ErrSlugInvalid  = errors.New("slug may only contain lowercase letters, digits and dashes")
	ErrSlugTooLong  = errors.New("slug is too long")
	ErrScoreInvalid = fmt.Errorf("score must be between %d and %d", MinScore, MaxScore)
)

func SlugValidator(s string) error {
	if len(s) > maxSlugLen {
		return ErrSlugTooLong
	}

	if !slug.IsSlug(s) {
		return ErrSlugInvalid
	}

	return nil
}

func ScoreValidator(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrScoreInvalid
	}

	return nil
}

// YearValidator accepts years from minYear up to the current year.
func YearValidator(year, minYear int, now time.Time) error {
	if year > now.Year() {
		return fmt.Errorf("year can't be later than %d", now.Year())
	}

	if year < minYear {
		return fmt.Errorf("year can't be earlier than %d", minYear)
	}

	return nil
}
