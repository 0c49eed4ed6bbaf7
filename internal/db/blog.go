package db

import "time"

// Blog 定义了博客文章模型
type Blog struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Slug          string    `gorm:"uniqueIndex;not null" json:"slug"`
	Content       JSONValue `gorm:"type:text" json:"content"`
	CoverImageURL string    `json:"cover_image_url"`
	Published     bool      `gorm:"default:false" json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
