package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// DefaultSectionTitle is used when no heading can be detected at all.
	DefaultSectionTitle = "Course Material"

	fallbackChunkSize = 10 // sentences per pseudo-section
)

// Section is a titled excerpt of source document text bounded by detected
// heading markers. Page is 1-based; 0 means no page reference.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Page    int    `json:"page,omitempty"`
}

// headingRegex matches a recognized heading label at a line start, followed by
// a number/word token and the rest of the line. "Sura" and "Somo" are the
// Swahili variants.
var headingRegex = regexp.MustCompile(
	`(?mi)^[ \t]*((?:chapter|section|unit|module|part|lesson|sura|somo)[ \t]+[0-9A-Za-z]+\S*[^\n]*)`)

var sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

type headingMark struct {
	page   int // 0-based
	offset int // rune-safe byte offset within the page
	title  string
}

// Split partitions per-page document text into sections bounded by detected
// headings. Headings are collected across all pages and ordered by
// (page, offset); each section's content runs from its own heading to the
// next one, spanning intervening pages verbatim. The last section runs to the
// end of the last page. With zero detected headings the whole text becomes a
// single section titled DefaultSectionTitle.
func Split(pages []string) []Section {
	var marks []headingMark
	for pi, text := range pages {
		for _, loc := range headingRegex.FindAllStringSubmatchIndex(text, -1) {
			marks = append(marks, headingMark{
				page:   pi,
				offset: loc[2],
				title:  strings.TrimSpace(text[loc[2]:loc[3]]),
			})
		}
	}

	if len(marks) == 0 {
		return []Section{{
			Title:   DefaultSectionTitle,
			Content: strings.TrimSpace(strings.Join(pages, "\n")),
		}}
	}

	// FindAllStringSubmatchIndex already yields per-page matches in offset
	// order; the sort is the documented (page, offset) ordering guarantee.
	sort.SliceStable(marks, func(i, j int) bool {
		if marks[i].page != marks[j].page {
			return marks[i].page < marks[j].page
		}
		return marks[i].offset < marks[j].offset
	})

	secs := make([]Section, 0, len(marks))
	for i, m := range marks {
		var content strings.Builder
		if i+1 < len(marks) {
			next := marks[i+1]
			if next.page == m.page {
				content.WriteString(pages[m.page][m.offset:next.offset])
			} else {
				content.WriteString(pages[m.page][m.offset:])
				for p := m.page + 1; p < next.page; p++ {
					content.WriteString("\n")
					content.WriteString(pages[p])
				}
				content.WriteString("\n")
				content.WriteString(pages[next.page][:next.offset])
			}
		} else {
			content.WriteString(pages[m.page][m.offset:])
			for p := m.page + 1; p < len(pages); p++ {
				content.WriteString("\n")
				content.WriteString(pages[p])
			}
		}
		secs = append(secs, Section{
			Title:   m.title,
			Content: strings.TrimSpace(content.String()),
			Page:    m.page + 1,
		})
	}
	return secs
}

// FallbackChunk is the degraded mode for text without position information:
// the text is split into sentences on punctuation boundaries and grouped into
// fixed-size pseudo-sections with synthetic titles and no page reference.
// Non-empty text that yields no usable chunk still produces one section.
func FallbackChunk(text string) []Section {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := make([]string, 0, 64)
	for _, s := range sentenceRegex.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	var secs []Section
	for start := 0; start < len(sentences); start += fallbackChunkSize {
		end := start + fallbackChunkSize
		if end > len(sentences) {
			end = len(sentences)
		}
		content := strings.TrimSpace(strings.Join(sentences[start:end], " "))
		if content == "" {
			continue
		}
		secs = append(secs, Section{
			Title:   fmt.Sprintf("Part %d", len(secs)+1),
			Content: content,
		})
	}

	if len(secs) == 0 {
		return []Section{{Title: DefaultSectionTitle, Content: text}}
	}
	return secs
}
