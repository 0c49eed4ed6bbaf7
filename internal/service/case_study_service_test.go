package service

import (
	"errors"
	"strings"
	"testing"
)

func TestCaseStudyService_CreateMirrorsCoverFields(t *testing.T) {
	svc := NewCaseStudyService(setupBlogServiceTestDB(t))

	study, err := svc.Create(CaseStudyInput{
		Title:         strPtr("Retail Rollout"),
		Content:       testContent("<p>x</p>"),
		CoverImageURL: strPtr("https://cdn.example.com/cover.jpg"),
		Client:        strPtr("Acme"),
	})
	if err != nil {
		t.Fatalf("create case study: %v", err)
	}
	if study.Slug != "retail-rollout" {
		t.Fatalf("expected slug %q, got %q", "retail-rollout", study.Slug)
	}
	// The editor sends either cover field; each falls back to the other.
	if study.CoverImage != study.CoverImageURL {
		t.Fatalf("expected cover fields mirrored, got %q and %q", study.CoverImage, study.CoverImageURL)
	}
	if study.Client != "Acme" {
		t.Fatalf("expected client kept, got %q", study.Client)
	}
}

func TestCaseStudyService_CreateEmptyTitleSlugFallback(t *testing.T) {
	svc := NewCaseStudyService(setupBlogServiceTestDB(t))

	study, err := svc.Create(CaseStudyInput{Title: strPtr("???"), Content: testContent("<p>x</p>")})
	if err != nil {
		t.Fatalf("create case study: %v", err)
	}
	if study.Slug != "case-study" {
		t.Fatalf("expected placeholder slug %q, got %q", "case-study", study.Slug)
	}
}

func TestCaseStudyService_CreateDuplicateTitleGetsSuffix(t *testing.T) {
	svc := NewCaseStudyService(setupBlogServiceTestDB(t))

	first, err := svc.Create(CaseStudyInput{Title: strPtr("Same Name"), Content: testContent("<p>1</p>")})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(CaseStudyInput{Title: strPtr("Same Name"), Content: testContent("<p>2</p>")})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Slug == second.Slug {
		t.Fatalf("expected distinct slugs, both were %q", first.Slug)
	}
	if !strings.HasPrefix(second.Slug, "same-name-") {
		t.Fatalf("expected disambiguating suffix on %q", second.Slug)
	}
}

func TestCaseStudyService_UpdateKeepsOmittedFields(t *testing.T) {
	svc := NewCaseStudyService(setupBlogServiceTestDB(t))

	created, err := svc.Create(CaseStudyInput{
		Title:   strPtr("Logistics Platform"),
		Summary: strPtr("short version"),
		Client:  strPtr("Initech"),
		Content: testContent("<p>x</p>"),
	})
	if err != nil {
		t.Fatalf("create case study: %v", err)
	}

	updated, err := svc.Update(created.ID, CaseStudyInput{Summary: strPtr("longer version")})
	if err != nil {
		t.Fatalf("update case study: %v", err)
	}

	if updated.ID != created.ID {
		t.Fatalf("update changed id from %d to %d", created.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update changed created_at")
	}
	if updated.Summary != "longer version" {
		t.Fatalf("expected summary replaced, got %q", updated.Summary)
	}
	if updated.Client != "Initech" {
		t.Fatalf("expected client kept, got %q", updated.Client)
	}
	if updated.Title != "Logistics Platform" {
		t.Fatalf("expected title kept, got %q", updated.Title)
	}
	if updated.Slug != created.Slug {
		t.Fatalf("expected slug unchanged for unchanged title, got %q", updated.Slug)
	}
}

func TestCaseStudyService_DeleteNotFound(t *testing.T) {
	svc := NewCaseStudyService(setupBlogServiceTestDB(t))

	if err := svc.Delete(777); !errors.Is(err, ErrCaseStudyNotFound) {
		t.Fatalf("expected ErrCaseStudyNotFound, got %v", err)
	}
}
