package model

import "time"

// Authored holds the fields shared by reviews and comments. CreatedAt is
// written once on insert and never updated. AuthorName is filled by the
// store from a join and is never persisted.
type Authored struct {
	Text       string    `gorm:"not null" json:"text"`
	AuthorID   string    `gorm:"size:16;not null;index" json:"-"`
	AuthorName string    `gorm:"->;-:migration" json:"author"`
	CreatedAt  time.Time `gorm:"autoCreateTime;<-:create" json:"pub_date"`
}

// Review is unique on (author_id, title_id). The index is created by the
// review_author_title_unique migration.
type Review struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	TitleID uint `gorm:"not null;index" json:"-"`
	Score   int  `gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10" json:"score"`
	Authored
}

type Comment struct {
	ID       uint `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID uint `gorm:"not null;index" json:"-"`
	Authored
}
