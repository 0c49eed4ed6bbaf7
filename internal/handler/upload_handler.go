package handler

import (
	"bytes"
	"errors"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dtales/backend/internal/docx"
	"github.com/dtales/backend/internal/storage"
	"github.com/gin-gonic/gin"

	// Image decoders for upload validation.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	maxImageSize    = 10 << 20 // 10MB
	maxDocumentSize = 50 << 20 // 50MB

	sourceImageUpload = "image_upload"
	sourceDocxParse   = "docx_parse"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var allowedDocumentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
}

// UploadImage accepts a single multipart image, validates it and forwards it
// to object storage.
//
// Degrade policy: when the storage endpoint is unreachable the handler
// answers 200 with a warning instead of failing, so saving a record is never
// blocked by a down image service. Any other storage error is a hard 500.
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		respondUploadError(c, http.StatusBadRequest, "no image file provided", sourceImageUpload)
		return
	}
	if file.Size > maxImageSize {
		respondUploadError(c, http.StatusBadRequest, "image exceeds the 10MB size limit", sourceImageUpload)
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		respondUploadError(c, http.StatusBadRequest, "only JPEG, PNG, and WebP images are allowed", sourceImageUpload)
		return
	}

	data, err := readMultipartFile(file)
	if err != nil {
		respondUploadError(c, http.StatusBadRequest, "failed to read uploaded image", sourceImageUpload)
		return
	}

	// The declared type is client-controlled; make sure the bytes decode as
	// an image before paying for storage.
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		respondUploadError(c, http.StatusBadRequest, "file content is not a valid image", sourceImageUpload)
		return
	}

	key := storage.ObjectKey("images", file.Filename)
	url, err := a.store.Upload(c.Request.Context(), key, contentType, data)
	if err != nil {
		if storage.IsUnreachable(err) {
			log.Printf("image upload degraded, storage unreachable: %v", err)
			c.JSON(http.StatusOK, gin.H{
				"url":     "",
				"warning": "image storage is unreachable; the image was not uploaded",
				"source":  sourceImageUpload,
			})
			return
		}
		log.Printf("image upload failed: %v", err)
		respondUploadError(c, http.StatusInternalServerError, "failed to upload image", sourceImageUpload)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}

// UploadDocument accepts a word-processing document, converts it to
// sanitized HTML and externalizes embedded images to object storage. A
// failing embedded image is dropped; it never fails the whole conversion.
// Markdown documents are converted too, for editors that draft in .md.
func (a *API) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("contentFile")
	if err != nil {
		file, err = c.FormFile("docx")
	}
	if err != nil {
		respondUploadError(c, http.StatusBadRequest, "no document file provided", sourceDocxParse)
		return
	}
	if file.Size > maxDocumentSize {
		respondUploadError(c, http.StatusBadRequest, "document exceeds the 50MB size limit", sourceDocxParse)
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")
	isDocx := ext == ".docx" || allowedDocumentTypes[contentType]
	isMarkdown := ext == ".md" || ext == ".markdown"
	if !isDocx && !isMarkdown {
		respondUploadError(c, http.StatusBadRequest, "only .docx and .md files are allowed", sourceDocxParse)
		return
	}

	data, err := readMultipartFile(file)
	if err != nil {
		respondUploadError(c, http.StatusBadRequest, "failed to read uploaded document", sourceDocxParse)
		return
	}

	if isMarkdown {
		var buf bytes.Buffer
		if err := a.markdown.Convert(data, &buf); err != nil {
			log.Printf("markdown conversion failed: %v", err)
			respondUploadError(c, http.StatusInternalServerError, "failed to convert markdown document", sourceDocxParse)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"html":   a.sanitizer.Sanitize(buf.String()),
			"images": []string{},
		})
		return
	}

	uploadEmbedded := func(contentType string, data []byte) (string, error) {
		key := storage.ObjectKey("docs/images", "embedded"+extensionFor(contentType))
		url, err := a.store.Upload(c.Request.Context(), key, contentType, data)
		if err != nil {
			log.Printf("embedded image upload failed: %v", err)
			return "", err
		}
		return url, nil
	}

	result, err := docx.Convert(data, uploadEmbedded)
	if err != nil {
		if errors.Is(err, docx.ErrNotDocx) {
			respondUploadError(c, http.StatusBadRequest, "file is not a valid .docx document", sourceDocxParse)
			return
		}
		log.Printf("docx conversion failed: %v", err)
		respondUploadError(c, http.StatusInternalServerError, "failed to parse .docx file", sourceDocxParse)
		return
	}

	images := result.Images
	if images == nil {
		images = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"html":   a.sanitizer.Sanitize(result.HTML),
		"images": images,
	})
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
