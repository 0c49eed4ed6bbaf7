package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/dtales/backend/internal/db"
	"github.com/dtales/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type caseStudyRequest struct {
	Title         *string      `json:"title"`
	Slug          *string      `json:"slug"`
	Summary       *string      `json:"summary"`
	Client        *string      `json:"client"`
	Content       db.JSONValue `json:"content"`
	CoverImage    *string      `json:"cover_image"`
	CoverImageURL *string      `json:"cover_image_url"`
	Published     *bool        `json:"published"`
}

func (r caseStudyRequest) toInput() service.CaseStudyInput {
	return service.CaseStudyInput{
		Title:         r.Title,
		Slug:          r.Slug,
		Summary:       r.Summary,
		Client:        r.Client,
		Content:       r.Content,
		CoverImage:    r.CoverImage,
		CoverImageURL: r.CoverImageURL,
		Published:     r.Published,
	}
}

// ListCaseStudies 返回全部案例列表（含未发布）
func (a *API) ListCaseStudies(c *gin.Context) {
	studies, err := a.caseStudies.ListAll()
	if err != nil {
		log.Printf("list case studies: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to fetch case studies")
		return
	}
	c.JSON(http.StatusOK, studies)
}

// ListPublicCaseStudies returns published case studies only.
func (a *API) ListPublicCaseStudies(c *gin.Context) {
	studies, err := a.caseStudies.ListPublished()
	if err != nil {
		log.Printf("list public case studies: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to fetch public case studies")
		return
	}
	c.JSON(http.StatusOK, studies)
}

// GetCaseStudy 获取单个案例
func (a *API) GetCaseStudy(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid case study id")
		return
	}

	study, err := a.caseStudies.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrCaseStudyNotFound) {
			respondError(c, http.StatusNotFound, "case study not found")
			return
		}
		log.Printf("get case study %d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to fetch case study")
		return
	}
	c.JSON(http.StatusOK, study)
}

// CreateCaseStudy 创建新案例
func (a *API) CreateCaseStudy(c *gin.Context) {
	var req caseStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	study, err := a.caseStudies.Create(req.toInput())
	if err != nil {
		a.respondCaseStudyError(c, err, "failed to create case study")
		return
	}
	c.JSON(http.StatusCreated, study)
}

// UpdateCaseStudy 更新案例
func (a *API) UpdateCaseStudy(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid case study id")
		return
	}

	var req caseStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	study, err := a.caseStudies.Update(id, req.toInput())
	if err != nil {
		a.respondCaseStudyError(c, err, "failed to update case study")
		return
	}
	c.JSON(http.StatusOK, study)
}

// DeleteCaseStudy 删除案例
func (a *API) DeleteCaseStudy(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid case study id")
		return
	}

	if err := a.caseStudies.Delete(id); err != nil {
		if errors.Is(err, service.ErrCaseStudyNotFound) {
			respondError(c, http.StatusNotFound, "case study not found")
			return
		}
		log.Printf("delete case study %d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to delete case study")
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) respondCaseStudyError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTitleRequired):
		respondError(c, http.StatusBadRequest, "title is required")
	case errors.Is(err, service.ErrContentRequired):
		respondError(c, http.StatusBadRequest, "content is required")
	case errors.Is(err, service.ErrCaseStudyNotFound):
		respondError(c, http.StatusNotFound, "case study not found")
	default:
		log.Printf("%s: %v", fallback, err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
