package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/dtales/backend/internal/db"
	"github.com/dtales/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// blogRequest mirrors the JSON body accepted by create and update. Pointer
// fields distinguish "omitted" from "set to the zero value" so updates can
// keep stored values for absent fields.
type blogRequest struct {
	Title         *string      `json:"title"`
	Slug          *string      `json:"slug"`
	Content       db.JSONValue `json:"content"`
	CoverImageURL *string      `json:"cover_image_url"`
	Published     *bool        `json:"published"`
}

func (r blogRequest) toInput() service.BlogInput {
	return service.BlogInput{
		Title:         r.Title,
		Slug:          r.Slug,
		Content:       r.Content,
		CoverImageURL: r.CoverImageURL,
		Published:     r.Published,
	}
}

// ListBlogs 返回全部博客列表（含未发布）
func (a *API) ListBlogs(c *gin.Context) {
	blogs, err := a.blogs.ListAll()
	if err != nil {
		log.Printf("list blogs: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to fetch blogs")
		return
	}
	c.JSON(http.StatusOK, blogs)
}

// ListPublicBlogs returns published blogs only.
func (a *API) ListPublicBlogs(c *gin.Context) {
	blogs, err := a.blogs.ListPublished()
	if err != nil {
		log.Printf("list public blogs: %v", err)
		respondError(c, http.StatusInternalServerError, "failed to fetch public blogs")
		return
	}
	c.JSON(http.StatusOK, blogs)
}

// GetBlog 获取单篇博客
func (a *API) GetBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := a.blogs.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrBlogNotFound) {
			respondError(c, http.StatusNotFound, "blog not found")
			return
		}
		log.Printf("get blog %d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to fetch blog")
		return
	}
	c.JSON(http.StatusOK, blog)
}

// CreateBlog 创建新博客
func (a *API) CreateBlog(c *gin.Context) {
	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	blog, err := a.blogs.Create(req.toInput())
	if err != nil {
		a.respondBlogError(c, err, "failed to create blog")
		return
	}
	c.JSON(http.StatusCreated, blog)
}

// UpdateBlog 更新博客
func (a *API) UpdateBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}

	var req blogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	blog, err := a.blogs.Update(id, req.toInput())
	if err != nil {
		a.respondBlogError(c, err, "failed to update blog")
		return
	}
	c.JSON(http.StatusOK, blog)
}

// DeleteBlog 删除博客
func (a *API) DeleteBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid blog id")
		return
	}

	if err := a.blogs.Delete(id); err != nil {
		if errors.Is(err, service.ErrBlogNotFound) {
			respondError(c, http.StatusNotFound, "blog not found")
			return
		}
		log.Printf("delete blog %d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "failed to delete blog")
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) respondBlogError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTitleRequired):
		respondError(c, http.StatusBadRequest, "title is required")
	case errors.Is(err, service.ErrContentRequired):
		respondError(c, http.StatusBadRequest, "content is required")
	case errors.Is(err, service.ErrBlogNotFound):
		respondError(c, http.StatusNotFound, "blog not found")
	default:
		log.Printf("%s: %v", fallback, err)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
