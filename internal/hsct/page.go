// Package hsct scrapes company profiles from hsctvn.com through a headless
// browser and mines fields out of the rendered pages with layered
// heuristics. The site has no API and its markup drifts, so every stage is
// best-effort and fills only what earlier stages left empty.
package hsct

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// Page wraps a rendered document with both structured (goquery) and
// line-oriented plaintext views. The heuristics need both: labeled lines
// come from the text view, tables and lists from the DOM.
type Page struct {
	doc   *goquery.Document
	lines []string
}

// ParsePage parses rendered HTML into a Page.
func ParsePage(rawHTML string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, eris.Wrap(err, "hsct: parse page")
	}
	return &Page{doc: doc, lines: htmlToLines(rawHTML)}, nil
}

// Title returns the trimmed <title> text.
func (p *Page) Title() string {
	return collapseSpaces(p.doc.Find("title").First().Text())
}

// Lines returns the page text split at block boundaries, one trimmed
// non-empty line per entry.
func (p *Page) Lines() []string {
	return p.lines
}

// Text returns the whole page text as a single string.
func (p *Page) Text() string {
	return strings.Join(p.lines, "\n")
}

// NameCandidates returns possible company-name strings in preference
// order: h1, page title, h2, then common name classes.
func (p *Page) NameCandidates() []string {
	var out []string
	add := func(s string) {
		s = collapseSpaces(s)
		if s != "" {
			out = append(out, s)
		}
	}

	p.doc.Find("h1").Each(func(_ int, sel *goquery.Selection) { add(sel.Text()) })
	add(p.Title())
	p.doc.Find("h2").Each(func(_ int, sel *goquery.Selection) { add(sel.Text()) })
	p.doc.Find(".company-name, .title").Each(func(_ int, sel *goquery.Selection) { add(sel.Text()) })
	return out
}

// EachTableRow calls fn with the first cell as label and the remaining
// cells joined as value, for every two-plus-cell table row.
func (p *Page) EachTableRow(fn func(label, value string)) {
	p.doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		label := collapseSpaces(cells.First().Text())
		var values []string
		cells.Slice(1, cells.Length()).Each(func(_ int, cell *goquery.Selection) {
			if v := collapseSpaces(cell.Text()); v != "" {
				values = append(values, v)
			}
		})
		if label == "" || len(values) == 0 {
			return
		}
		fn(label, strings.Join(values, " "))
	})
}

// ListItems returns all list item texts on the page.
func (p *Page) ListItems() []string {
	var out []string
	p.doc.Find("ul li, ol li").Each(func(_ int, sel *goquery.Selection) {
		if s := collapseSpaces(sel.Text()); s != "" {
			out = append(out, s)
		}
	})
	return out
}

// SectionListItems returns list items inside the containers whose text
// mentions every keyword, preferring scoped sections over the whole page.
func (p *Page) SectionListItems(keywords ...string) []string {
	var out []string
	p.doc.Find("div, section, article").Each(func(_ int, sel *goquery.Selection) {
		text := strings.ToLower(sel.Text())
		for _, kw := range keywords {
			if !strings.Contains(text, strings.ToLower(kw)) {
				return
			}
		}
		sel.Find("ul li, ol li").Each(func(_ int, li *goquery.Selection) {
			if s := collapseSpaces(li.Text()); s != "" {
				out = append(out, s)
			}
		})
	})
	return out
}

// ResultLink finds the search-result link for a tax code: first a link
// whose href or text carries the code, then a link inside any row that
// mentions it.
func (p *Page) ResultLink(taxCode string) string {
	var href string

	p.doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		h, _ := sel.Attr("href")
		if strings.Contains(h, taxCode) || strings.Contains(sel.Text(), taxCode) {
			href = h
			return false
		}
		return true
	})
	if href != "" {
		return href
	}

	p.doc.Find("tr, li, .result, .item").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if !strings.Contains(row.Text(), taxCode) {
			return true
		}
		if h, ok := row.Find("a[href]").First().Attr("href"); ok && h != "" {
			href = h
			return false
		}
		return true
	})
	return href
}

var (
	dropBlockRe = regexp.MustCompile(`(?is)<(script|style|nav|footer|noscript)[^>]*>.*?</(script|style|nav|footer|noscript)>`)
	lineBreakRe = regexp.MustCompile(`(?i)<(?:br\s*/?|/p|/div|/li|/tr|/h[1-6]|/title|/section|/article|/table)>`)
	anyTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// htmlToLines converts markup to plaintext lines, breaking at block-level
// boundaries so labeled values stay on one line per field.
func htmlToLines(rawHTML string) []string {
	s := dropBlockRe.ReplaceAllString(rawHTML, " ")
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = anyTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
