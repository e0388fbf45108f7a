package model

// Slugged holds the fields shared by genres and categories.
type Slugged struct {
	Name string `gorm:"size:256;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;size:50;not null" json:"slug"`
}

type Genre struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"-"`
	Slugged
}

type Category struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"-"`
	Slugged
}

type Title struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:256;not null;index" json:"name"`
	Year        int       `gorm:"not null;index" json:"year"`
	Description string    `json:"description"`
	Genres      []Genre   `gorm:"many2many:title_genres;constraint:OnDelete:CASCADE" json:"genre"`
	CategoryID  *uint     `gorm:"index" json:"-"`
	Category    *Category `gorm:"constraint:OnDelete:SET NULL" json:"category"`
}
