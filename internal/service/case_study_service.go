package service

import (
	"errors"
	"strings"

	"github.com/dtales/backend/internal/db"
	"gorm.io/gorm"
)

var ErrCaseStudyNotFound = errors.New("case study not found")

// CaseStudyService wraps case study related database operations.
type CaseStudyService struct {
	db *gorm.DB
}

// CaseStudyInput represents fields accepted when creating or updating a
// case study. Nil pointers mean the field was omitted.
type CaseStudyInput struct {
	Title         *string
	Slug          *string
	Summary       *string
	Client        *string
	Content       db.JSONValue
	CoverImage    *string
	CoverImageURL *string
	Published     *bool
}

// NewCaseStudyService creates a CaseStudyService instance.
func NewCaseStudyService(gdb *gorm.DB) *CaseStudyService {
	return &CaseStudyService{db: gdb}
}

// ListAll returns all case studies ordered by created time descending.
func (s *CaseStudyService) ListAll() ([]db.CaseStudy, error) {
	var studies []db.CaseStudy
	if err := s.db.Order("created_at desc").Order("id desc").Find(&studies).Error; err != nil {
		return nil, err
	}
	return studies, nil
}

// ListPublished returns published case studies ordered by created time
// descending.
func (s *CaseStudyService) ListPublished() ([]db.CaseStudy, error) {
	var studies []db.CaseStudy
	if err := s.db.Where("published = ?", true).Order("created_at desc").Order("id desc").Find(&studies).Error; err != nil {
		return nil, err
	}
	return studies, nil
}

// Get fetches a case study by id.
func (s *CaseStudyService) Get(id uint) (*db.CaseStudy, error) {
	var study db.CaseStudy
	if err := s.db.First(&study, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseStudyNotFound
		}
		return nil, err
	}
	return &study, nil
}

// Create persists a new case study. The slug is always derived server-side;
// the editor sends cover_image and cover_image_url interchangeably, so each
// falls back to the other.
func (s *CaseStudyService) Create(input CaseStudyInput) (*db.CaseStudy, error) {
	title := strings.TrimSpace(derefString(input.Title))
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Content.IsNull() {
		return nil, ErrContentRequired
	}

	slug, err := s.uniqueSlug(slugBase(input.Slug, title, "case-study"), 0)
	if err != nil {
		return nil, err
	}

	cover := derefString(input.CoverImage)
	coverURL := derefString(input.CoverImageURL)
	if cover == "" {
		cover = coverURL
	}
	if coverURL == "" {
		coverURL = cover
	}

	study := db.CaseStudy{
		Title:         title,
		Slug:          slug,
		Summary:       derefString(input.Summary),
		Client:        derefString(input.Client),
		Content:       input.Content,
		CoverImage:    cover,
		CoverImageURL: coverURL,
		Published:     derefBool(input.Published),
	}
	if err := s.db.Create(&study).Error; err != nil {
		return nil, err
	}
	return &study, nil
}

// Update merges the provided fields over the stored record and recomputes
// the slug from the final title.
func (s *CaseStudyService) Update(id uint, input CaseStudyInput) (*db.CaseStudy, error) {
	var existing db.CaseStudy
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseStudyNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		existing.Title = strings.TrimSpace(*input.Title)
	}
	if existing.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Summary != nil {
		existing.Summary = *input.Summary
	}
	if input.Client != nil {
		existing.Client = *input.Client
	}
	if input.Content != nil {
		existing.Content = input.Content
	}
	if input.CoverImage != nil {
		existing.CoverImage = *input.CoverImage
	}
	if input.CoverImageURL != nil {
		existing.CoverImageURL = *input.CoverImageURL
	}
	if existing.CoverImageURL == "" {
		existing.CoverImageURL = existing.CoverImage
	}
	if input.Published != nil {
		existing.Published = *input.Published
	}

	slug, err := s.uniqueSlug(slugBase(input.Slug, existing.Title, "case-study"), existing.ID)
	if err != nil {
		return nil, err
	}
	existing.Slug = slug

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Delete removes a case study by id.
func (s *CaseStudyService) Delete(id uint) error {
	result := s.db.Delete(&db.CaseStudy{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCaseStudyNotFound
	}
	return nil
}

func (s *CaseStudyService) uniqueSlug(base string, excludeID uint) (string, error) {
	query := s.db.Model(&db.CaseStudy{}).Where("slug = ?", base)
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
