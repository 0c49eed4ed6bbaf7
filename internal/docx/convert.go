// Package docx converts WordprocessingML documents to HTML.
//
// A .docx file is a zip archive; the document body lives in
// word/document.xml and embedded images are separate parts referenced
// through word/_rels/document.xml.rels. The converter walks the body with a
// streaming XML decoder and emits HTML for the structures a word processor
// actually produces: headings, paragraphs, inline formatting, hyperlinks,
// lists, tables and images.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"path"
	"strconv"
	"strings"
)

// ErrNotDocx is returned when the payload is not a Word document.
var ErrNotDocx = errors.New("file is not a .docx document")

// ImageFunc externalizes one embedded image and returns the URL to
// reference in the generated HTML. Returning an error drops the image from
// the output without failing the conversion.
type ImageFunc func(contentType string, data []byte) (string, error)

// Result holds the generated HTML and the URLs of the images that were
// externalized, in document order.
type Result struct {
	HTML   string
	Images []string
}

// Convert parses a .docx payload. When images is nil, embedded images are
// inlined as base64 data URIs instead of being externalized.
func Convert(data []byte, images ImageFunc) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrNotDocx
	}

	parts := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		parts[f.Name] = f
	}

	docPart, ok := parts["word/document.xml"]
	if !ok {
		return nil, ErrNotDocx
	}

	rels, err := readRelationships(parts["word/_rels/document.xml.rels"])
	if err != nil {
		return nil, err
	}

	docXML, err := readPart(docPart)
	if err != nil {
		return nil, err
	}

	c := &converter{
		dec:    xml.NewDecoder(bytes.NewReader(docXML)),
		rels:   rels,
		parts:  parts,
		images: images,
	}
	if err := c.convert(); err != nil {
		return nil, fmt.Errorf("parsing document body: %w", err)
	}

	return &Result{HTML: c.out.String(), Images: c.urls}, nil
}

type relationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Relationships []relationship `xml:"Relationship"`
}

func readRelationships(f *zip.File) (map[string]string, error) {
	rels := make(map[string]string)
	if f == nil {
		return rels, nil
	}
	raw, err := readPart(f)
	if err != nil {
		return nil, err
	}
	var parsed relationships
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parsing relationships: %w", err)
	}
	for _, rel := range parsed.Relationships {
		rels[rel.ID] = rel.Target
	}
	return rels, nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type converter struct {
	dec      *xml.Decoder
	out      strings.Builder
	rels     map[string]string
	parts    map[string]*zip.File
	images   ImageFunc
	urls     []string
	listOpen bool
}

func (c *converter) convert() error {
	for {
		tok, err := c.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "p":
			if err := c.paragraph(); err != nil {
				return err
			}
		case "tbl":
			if err := c.table(); err != nil {
				return err
			}
		case "sectPr":
			if err := c.dec.Skip(); err != nil {
				return err
			}
		}
	}
	c.closeList()
	return nil
}

// paragraph consumes one w:p element and flushes it as a heading, list item
// or plain paragraph depending on its properties.
func (c *converter) paragraph() error {
	var (
		style  string
		list   bool
		inline strings.Builder
	)
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if style, list, err = c.paragraphProps(); err != nil {
					return err
				}
			case "r":
				if err := c.run(&inline); err != nil {
					return err
				}
			case "hyperlink":
				if err := c.hyperlink(&inline, t); err != nil {
					return err
				}
			default:
				if err := c.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				c.flushParagraph(style, list, inline.String())
				return nil
			}
		}
	}
}

func (c *converter) paragraphProps() (style string, list bool, err error) {
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return "", false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pStyle":
				style = attrVal(t, "val")
			case "numPr":
				list = true
			}
			if err := c.dec.Skip(); err != nil {
				return "", false, err
			}
		case xml.EndElement:
			if t.Name.Local == "pPr" {
				return style, list, nil
			}
		}
	}
}

type runFormat struct {
	bold      bool
	italic    bool
	underline bool
	strike    bool
}

// run consumes one w:r element and appends its HTML to sb, wrapping visible
// text in the formatting elements the run properties call for.
func (c *converter) run(sb *strings.Builder) error {
	var (
		format runFormat
		body   strings.Builder
	)
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if format, err = c.runProps(); err != nil {
					return err
				}
			case "t":
				var text struct {
					Value string `xml:",chardata"`
				}
				if err := c.dec.DecodeElement(&text, &t); err != nil {
					return err
				}
				body.WriteString(html.EscapeString(text.Value))
			case "br":
				body.WriteString("<br />")
				if err := c.dec.Skip(); err != nil {
					return err
				}
			case "tab":
				body.WriteString("\t")
				if err := c.dec.Skip(); err != nil {
					return err
				}
			case "drawing", "pict", "object":
				if err := c.inlineImage(&body, t.Name.Local); err != nil {
					return err
				}
			default:
				if err := c.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				sb.WriteString(wrapRun(format, body.String()))
				return nil
			}
		}
	}
}

func (c *converter) runProps() (runFormat, error) {
	var format runFormat
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return format, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			on := toggleOn(attrVal(t, "val"))
			switch t.Name.Local {
			case "b":
				format.bold = on
			case "i":
				format.italic = on
			case "u":
				format.underline = on
			case "strike":
				format.strike = on
			}
			if err := c.dec.Skip(); err != nil {
				return format, err
			}
		case xml.EndElement:
			if t.Name.Local == "rPr" {
				return format, nil
			}
		}
	}
}

// toggleOn interprets an OOXML on/off attribute: absent means on, and only
// an explicit false/none value turns the property off.
func toggleOn(val string) bool {
	switch val {
	case "false", "0", "none":
		return false
	default:
		return true
	}
}

func wrapRun(format runFormat, body string) string {
	if body == "" {
		return ""
	}
	if format.strike {
		body = "<s>" + body + "</s>"
	}
	if format.underline {
		body = "<u>" + body + "</u>"
	}
	if format.italic {
		body = "<em>" + body + "</em>"
	}
	if format.bold {
		body = "<strong>" + body + "</strong>"
	}
	return body
}

// hyperlink consumes one w:hyperlink element. External targets come from the
// relationships part, internal ones from the anchor attribute.
func (c *converter) hyperlink(sb *strings.Builder, se xml.StartElement) error {
	href := c.rels[attrVal(se, "id")]
	if href == "" {
		if anchor := attrVal(se, "anchor"); anchor != "" {
			href = "#" + anchor
		}
	}

	var inner strings.Builder
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "r" {
				if err := c.run(&inner); err != nil {
					return err
				}
			} else if err := c.dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			if t.Name.Local == "hyperlink" {
				if href == "" {
					sb.WriteString(inner.String())
				} else {
					fmt.Fprintf(sb, `<a href="%s">%s</a>`, html.EscapeString(href), inner.String())
				}
				return nil
			}
		}
	}
}

// inlineImage consumes a w:drawing (or legacy w:pict / w:object) element,
// resolves the image relationship it references and emits an img tag. A
// failing image is dropped without aborting the conversion.
func (c *converter) inlineImage(sb *strings.Builder, wrapper string) error {
	var rid string
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "blip":
				if rid == "" {
					rid = attrVal(t, "embed")
				}
			case "imagedata":
				if rid == "" {
					rid = attrVal(t, "id")
				}
			}
		case xml.EndElement:
			if t.Name.Local == wrapper {
				if rid != "" {
					c.emitImage(sb, rid)
				}
				return nil
			}
		}
	}
}

func (c *converter) emitImage(sb *strings.Builder, rid string) {
	target, ok := c.rels[rid]
	if !ok {
		return
	}
	part, ok := c.parts[mediaPartName(target)]
	if !ok {
		return
	}
	data, err := readPart(part)
	if err != nil {
		return
	}

	contentType := contentTypeForPart(target)
	if c.images == nil {
		fmt.Fprintf(sb, `<img src="data:%s;base64,%s" />`, contentType, base64.StdEncoding.EncodeToString(data))
		return
	}

	url, err := c.images(contentType, data)
	if err != nil {
		// Isolated failure: the document still converts, this image is
		// simply absent from the output.
		return
	}
	c.urls = append(c.urls, url)
	fmt.Fprintf(sb, `<img src="%s" />`, html.EscapeString(url))
}

// table consumes one w:tbl element, emitting rows and cells. Cell content
// goes through the normal paragraph path.
func (c *converter) table() error {
	c.closeList()
	c.out.WriteString("<table>")
	for {
		tok, err := c.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tr":
				c.out.WriteString("<tr>")
			case "tc":
				c.out.WriteString("<td>")
			case "p":
				if err := c.paragraph(); err != nil {
					return err
				}
			case "tbl":
				if err := c.table(); err != nil {
					return err
				}
			case "tblPr", "tblGrid", "trPr", "tcPr":
				if err := c.dec.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tr":
				c.out.WriteString("</tr>")
			case "tc":
				c.closeList()
				c.out.WriteString("</td>")
			case "tbl":
				c.out.WriteString("</table>")
				return nil
			}
		}
	}
}

func (c *converter) flushParagraph(style string, list bool, inner string) {
	if list {
		if !c.listOpen {
			c.out.WriteString("<ul>")
			c.listOpen = true
		}
		c.out.WriteString("<li>" + inner + "</li>")
		return
	}
	c.closeList()

	if strings.TrimSpace(inner) == "" {
		return
	}
	if level := headingLevel(style); level > 0 {
		fmt.Fprintf(&c.out, "<h%d>%s</h%d>", level, inner, level)
		return
	}
	c.out.WriteString("<p>" + inner + "</p>")
}

func (c *converter) closeList() {
	if c.listOpen {
		c.out.WriteString("</ul>")
		c.listOpen = false
	}
}

func headingLevel(style string) int {
	if style == "Title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "Heading"); ok {
		if level, err := strconv.Atoi(rest); err == nil && level >= 1 {
			if level > 6 {
				return 6
			}
			return level
		}
	}
	return 0
}

// attrVal returns the value of the named attribute, ignoring its namespace.
func attrVal(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

// mediaPartName resolves a relationship target like "media/image1.png" to
// its zip part name.
func mediaPartName(target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join("word", target)
}

func contentTypeForPart(target string) string {
	switch strings.ToLower(path.Ext(target)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
