package service

import (
	"errors"
	"strings"

	"github.com/dtales/backend/internal/db"
	"gorm.io/gorm"
)

var (
	ErrBlogNotFound    = errors.New("blog not found")
	ErrTitleRequired   = errors.New("title is required")
	ErrContentRequired = errors.New("content is required")
)

// BlogService wraps blog related database operations.
type BlogService struct {
	db *gorm.DB
}

// BlogInput represents fields accepted when creating or updating a blog.
// Nil pointers mean "field omitted": on create the default applies, on
// update the stored value is kept.
type BlogInput struct {
	Title         *string
	Slug          *string
	Content       db.JSONValue
	CoverImageURL *string
	Published     *bool
}

// NewBlogService creates a BlogService instance.
func NewBlogService(gdb *gorm.DB) *BlogService {
	return &BlogService{db: gdb}
}

// ListAll returns all blogs ordered by created time descending.
func (s *BlogService) ListAll() ([]db.Blog, error) {
	var blogs []db.Blog
	if err := s.db.Order("created_at desc").Order("id desc").Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

// ListPublished returns published blogs ordered by created time descending.
func (s *BlogService) ListPublished() ([]db.Blog, error) {
	var blogs []db.Blog
	if err := s.db.Where("published = ?", true).Order("created_at desc").Order("id desc").Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

// Get fetches a blog by id.
func (s *BlogService) Get(id uint) (*db.Blog, error) {
	var blog db.Blog
	if err := s.db.First(&blog, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return &blog, nil
}

// Create persists a new blog with a derived, unique slug. Published
// defaults to false when unspecified.
func (s *BlogService) Create(input BlogInput) (*db.Blog, error) {
	title := strings.TrimSpace(derefString(input.Title))
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Content.IsNull() {
		return nil, ErrContentRequired
	}

	slug, err := s.uniqueSlug(slugBase(input.Slug, title, "blog"), 0)
	if err != nil {
		return nil, err
	}

	blog := db.Blog{
		Title:         title,
		Slug:          slug,
		Content:       input.Content,
		CoverImageURL: derefString(input.CoverImageURL),
		Published:     derefBool(input.Published),
	}
	if err := s.db.Create(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

// Update merges the provided fields over the stored record, recomputes the
// slug from the final title and writes the full record back.
func (s *BlogService) Update(id uint, input BlogInput) (*db.Blog, error) {
	var existing db.Blog
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		existing.Title = strings.TrimSpace(*input.Title)
	}
	if existing.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Content != nil {
		existing.Content = input.Content
	}
	if input.CoverImageURL != nil {
		existing.CoverImageURL = *input.CoverImageURL
	}
	if input.Published != nil {
		existing.Published = *input.Published
	}

	slug, err := s.uniqueSlug(slugBase(input.Slug, existing.Title, "blog"), existing.ID)
	if err != nil {
		return nil, err
	}
	existing.Slug = slug

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Delete removes a blog by id.
func (s *BlogService) Delete(id uint) error {
	result := s.db.Delete(&db.Blog{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// uniqueSlug runs the single existence check the slug contract calls for,
// excluding the record's own id on update.
func (s *BlogService) uniqueSlug(base string, excludeID uint) (string, error) {
	query := s.db.Model(&db.Blog{}).Where("slug = ?", base)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return slugWithSuffix(base), nil
}

// slugBase prefers an explicit client slug over the title, and falls back to
// a fixed placeholder when neither survives slugging.
func slugBase(slug *string, title, fallback string) string {
	if slug != nil {
		if base := Slugify(*slug); base != "" {
			return base
		}
	}
	if base := Slugify(title); base != "" {
		return base
	}
	return fallback
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}
