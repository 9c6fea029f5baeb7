package document

import (
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// ExtractPages reads the PDF at path and returns its plain text, one string
// per page in reading order. An unreadable document fails the whole call;
// a single unreadable page only yields an empty page.
func ExtractPages(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening pdf %s", path)
	}
	defer f.Close()

	return readPages(r)
}

// ExtractPagesFromReader is ExtractPages for in-memory documents (uploads).
func ExtractPagesFromReader(ra io.ReaderAt, size int64) ([]string, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return nil, errors.Wrap(err, "reading pdf")
	}
	return readPages(r)
}

func readPages(r *pdf.Reader) ([]string, error) {
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// tolerate a bad page; the splitter falls back gracefully
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
