package db

import "time"

// CaseStudy represents a client case study. It mirrors Blog but carries the
// extra editorial fields the case study editor exposes.
type CaseStudy struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Summary       string    `json:"summary"`
	Client        string    `json:"client"`
	Content       JSONValue `gorm:"type:text" json:"content"`
	CoverImage    string    `json:"cover_image"`
	CoverImageURL string    `json:"cover_image_url"`
	Published     bool      `gorm:"default:false" json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
