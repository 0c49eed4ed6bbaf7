package handler

import (
	"net/http"

	"github.com/dtales/backend/internal/service"
	"github.com/dtales/backend/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	blogs       *service.BlogService
	caseStudies *service.CaseStudyService
	store       storage.Uploader

	adminUsername     string
	adminPasswordHash []byte

	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, store storage.Uploader, adminUsername string, adminPasswordHash []byte) *API {
	return &API{
		db:                gdb,
		blogs:             service.NewBlogService(gdb),
		caseStudies:       service.NewCaseStudyService(gdb),
		store:             store,
		adminUsername:     adminUsername,
		adminPasswordHash: adminPasswordHash,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
			goldmark.WithRendererOptions(html.WithXHTML()),
		),
		sanitizer: buildContentSanitizer(),
	}
}

// buildContentSanitizer allows the inline elements the docx converter emits
// on top of the stock user-generated-content policy.
func buildContentSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("u", "s")
	return policy
}

// Health reports process liveness.
func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
