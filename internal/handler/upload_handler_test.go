package handler

import (
	"archive/zip"
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// docxWithImages builds a minimal .docx with one paragraph and the given
// number of embedded images.
func docxWithImages(t *testing.T, imageCount int) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<w:p><w:r><w:t>Document body</w:t></w:r></w:p>`)
	var rels strings.Builder
	rels.WriteString(`<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, content []byte) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}

	for i := 1; i <= imageCount; i++ {
		rid := rune('3' + i)
		body.WriteString(`<w:p><w:r><w:drawing><wp:inline><a:graphic><a:graphicData><pic:pic><pic:blipFill>` +
			`<a:blip r:embed="rId` + string(rid) + `"/>` +
			`</pic:blipFill></pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`)
		name := "image" + string(rune('0'+i)) + ".png"
		rels.WriteString(`<Relationship Id="rId` + string(rid) + `" Type="t" Target="media/` + name + `"/>`)
		write("word/media/"+name, pngBytes(t))
	}
	rels.WriteString(`</Relationships>`)

	document := `<?xml version="1.0"?><w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
		`<w:body>` + body.String() + `</w:body></w:document>`
	write("word/document.xml", []byte(document))
	write("word/_rels/document.xml.rels", []byte(rels.String()))

	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	r, store := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "image", "photo.png", "image/png", pngBytes(t))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if !strings.HasPrefix(resp["url"], "https://cdn.example.com/images/") {
		t.Fatalf("expected storage URL, got %q", resp["url"])
	}
	if store.calls != 1 {
		t.Fatalf("expected exactly one upload, got %d", store.calls)
	}
}

func TestUploadImageRejectsDisallowedType(t *testing.T) {
	r, store := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "image", "anim.gif", "image/gif", []byte("GIF89a"))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if store.calls != 0 {
		t.Fatalf("object storage must not be called for rejected uploads, got %d calls", store.calls)
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["source"] != "image_upload" {
		t.Fatalf("expected source tag image_upload, got %q", resp["source"])
	}
}

func TestUploadImageRejectsMismatchedContent(t *testing.T) {
	r, store := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "image", "fake.png", "image/png", []byte("not an image at all"))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for undecodable image, got %d", w.Code)
	}
	if store.calls != 0 {
		t.Fatalf("object storage must not be called, got %d calls", store.calls)
	}
}

func TestUploadImageMissingFile(t *testing.T) {
	r, _ := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "wrong_field", "photo.png", "image/png", pngBytes(t))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadImageDegradesWhenStorageUnreachable(t *testing.T) {
	r, store := setupTestAPI(t)
	cookies := loginCookies(t, r)
	store.fail = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	body, contentType := multipartBody(t, "image", "photo.png", "image/png", pngBytes(t))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected degraded 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["warning"] == "" {
		t.Fatalf("expected warning in degraded response, got %s", w.Body.String())
	}
	if resp["url"] != "" {
		t.Fatalf("expected empty url in degraded response, got %q", resp["url"])
	}
}

func TestUploadImageFailsOnGenericStorageError(t *testing.T) {
	r, store := setupTestAPI(t)
	cookies := loginCookies(t, r)
	store.fail = errors.New("access denied")

	body, contentType := multipartBody(t, "image", "photo.png", "image/png", pngBytes(t))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, cookies)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadDocxExternalizesImages(t *testing.T) {
	r, store := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "contentFile", "draft.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", docxWithImages(t, 2))
	w := doUpload(t, r, "/api/uploads/docx", body, contentType, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		HTML   string   `json:"html"`
		Images []string `json:"images"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.Images) != 2 {
		t.Fatalf("expected 2 externalized images, got %d", len(resp.Images))
	}
	for _, url := range resp.Images {
		if !strings.Contains(resp.HTML, url) {
			t.Fatalf("expected HTML to reference %s, got %s", url, resp.HTML)
		}
	}
	if !strings.Contains(resp.HTML, "<p>Document body</p>") {
		t.Fatalf("expected converted paragraph, got %s", resp.HTML)
	}
	if store.calls != 2 {
		t.Fatalf("expected one upload per embedded image, got %d", store.calls)
	}
}

func TestUploadDocxAcceptsLegacyFieldName(t *testing.T) {
	r, _ := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "docx", "draft.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", docxWithImages(t, 0))
	w := doUpload(t, r, "/api/uploads/docx", body, contentType, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via legacy field, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Images []string `json:"images"`
	}
	decodeJSON(t, w, &resp)
	if resp.Images == nil || len(resp.Images) != 0 {
		t.Fatalf("expected empty images array, got %v", resp.Images)
	}
}

func TestUploadDocxRejectsOtherFormats(t *testing.T) {
	r, _ := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "contentFile", "notes.txt", "text/plain", []byte("plain text"))
	w := doUpload(t, r, "/api/uploads/docx", body, contentType, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["source"] != "docx_parse" {
		t.Fatalf("expected source tag docx_parse, got %q", resp["source"])
	}
}

func TestUploadDocxRejectsCorruptArchive(t *testing.T) {
	r, _ := setupTestAPI(t)
	cookies := loginCookies(t, r)

	body, contentType := multipartBody(t, "contentFile", "broken.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", []byte("not a zip"))
	w := doUpload(t, r, "/api/uploads/docx", body, contentType, cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for corrupt docx, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadMarkdownConvertsAndSanitizes(t *testing.T) {
	r, _ := setupTestAPI(t)
	cookies := loginCookies(t, r)

	md := "# Heading\n\nSome **bold** text.\n\n<script>alert(1)</script>\n"
	body, contentType := multipartBody(t, "contentFile", "draft.md", "text/markdown", []byte(md))
	w := doUpload(t, r, "/api/uploads/docx", body, contentType, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		HTML   string   `json:"html"`
		Images []string `json:"images"`
	}
	decodeJSON(t, w, &resp)
	if !strings.Contains(resp.HTML, "<h1") || !strings.Contains(resp.HTML, "<strong>bold</strong>") {
		t.Fatalf("expected converted markdown, got %s", resp.HTML)
	}
	if strings.Contains(resp.HTML, "<script>") {
		t.Fatalf("expected script stripped by sanitizer, got %s", resp.HTML)
	}
}

func TestUploadRoutesRequireSession(t *testing.T) {
	r, store := setupTestAPI(t)

	body, contentType := multipartBody(t, "image", "photo.png", "image/png", pngBytes(t))
	w := doUpload(t, r, "/api/uploads/image", body, contentType, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", w.Code)
	}
	if store.calls != 0 {
		t.Fatalf("object storage must not be called, got %d calls", store.calls)
	}
}
