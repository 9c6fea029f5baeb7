// Package docgen renders plain-text documents as minimal DOCX packages: a
// zip archive carrying the WordprocessingML parts a word processor needs to
// open them.
package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/pkg/errors"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentFooter = `</w:body></w:document>`
)

type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// RenderDocx builds a document with title as a heading followed by one
// paragraph per entry. Empty entries become empty paragraphs, so blank lines
// in pre-formatted text survive.
func (r *Renderer) RenderDocx(title string, paragraphs []string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	parts := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", renderDocumentXML(title, paragraphs)},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, errors.Wrapf(err, "creating %s", part.name)
		}
		if _, err = w.Write([]byte(part.content)); err != nil {
			return nil, errors.Wrapf(err, "writing %s", part.name)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "finalizing docx")
	}
	return buf, nil
}

func renderDocumentXML(title string, paragraphs []string) string {
	var b strings.Builder
	b.WriteString(documentHeader)

	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
	b.WriteString(escape(title))
	b.WriteString(`</w:t></w:r></w:p>`)

	for _, p := range paragraphs {
		if p == "" {
			b.WriteString(`<w:p/>`)
			continue
		}
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		b.WriteString(escape(p))
		b.WriteString(`</w:t></w:r></w:p>`)
	}

	b.WriteString(documentFooter)
	return b.String()
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
