package hsct

import (
	"context"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/model"
)

// Browser drives a real browser session and returns rendered HTML. Search
// submits the site's lookup form; Navigate opens an absolute URL.
type Browser interface {
	Search(ctx context.Context, query string) (string, error)
	Navigate(ctx context.Context, url string) (string, error)
}

// Extractor looks up one tax code on hsctvn.com and mines the profile page.
type Extractor struct {
	browser Browser
	baseURL string
}

// NewExtractor creates an Extractor on top of a Browser.
func NewExtractor(b Browser, baseURL string) *Extractor {
	return &Extractor{browser: b, baseURL: strings.TrimRight(baseURL, "/")}
}

// Extract searches for the tax code, follows the best result link when one
// exists, and mines the landed page. Returns (nil, nil) when the site
// yields no usable page; errors are reserved for browser failures.
func (e *Extractor) Extract(ctx context.Context, taxCode string) (*model.Extraction, error) {
	if taxCode == "" {
		return nil, eris.New("hsct: empty tax code")
	}

	rendered, err := e.browser.Search(ctx, taxCode)
	if err != nil {
		return nil, eris.Wrapf(err, "hsct: search %s", taxCode)
	}
	if strings.TrimSpace(rendered) == "" {
		return nil, nil
	}

	page, err := ParsePage(rendered)
	if err != nil {
		return nil, err
	}

	// Follow the result link when the search landed on a result list. If
	// navigation fails, mine the search page itself; it often carries the
	// summary row already.
	if link := page.ResultLink(taxCode); link != "" {
		detailHTML, navErr := e.browser.Navigate(ctx, e.resolve(link))
		if navErr != nil {
			zap.L().Warn("hsct result navigation failed, mining search page",
				zap.String("tax_code", taxCode),
				zap.Error(navErr),
			)
		} else if detail, perr := ParsePage(detailHTML); perr == nil {
			page = detail
		}
	}

	ext := extractFields(page, taxCode)
	ext.Seal()
	return ext, nil
}

func (e *Extractor) resolve(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	base, err := url.Parse(e.baseURL + "/")
	if err != nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return base.ResolveReference(ref).String()
}

// extractFields runs the heuristic stages in order. Later stages only fill
// fields earlier stages left empty.
func extractFields(page *Page, taxCode string) *model.Extraction {
	ext := &model.Extraction{TaxCode: taxCode}

	extractName(page, ext)
	applyLinePatterns(page.Lines(), ext)
	applyTableRows(page, ext)
	applyAddressShapeFallback(page.Lines(), ext)
	applyContactFallback(page, ext)
	ext.Activities = extractActivities(page, ext.Name)
	finalize(ext, taxCode)

	return ext
}

func extractName(page *Page, ext *model.Extraction) {
	for _, candidate := range page.NameCandidates() {
		if cleaned := CleanCompanyName(candidate); plausibleName(cleaned) {
			ext.Name = cleaned
			return
		}
	}
}

// lineLabel captures one "Nhãn: giá trị" pattern and where the value goes.
type lineLabel struct {
	label string
	apply func(ext *model.Extraction, value string)
}

var lineLabels = []lineLabel{
	{"địa chỉ thuế:", func(ext *model.Extraction, v string) {
		if ext.TaxAddress == "" && utf8.RuneCountInString(v) > 5 {
			ext.TaxAddress = v
		}
	}},
	{"đại diện pháp luật:", func(ext *model.Extraction, v string) {
		if ext.LegalRepresentative == "" && utf8.RuneCountInString(v) > 2 && !containsDigit(v) {
			ext.LegalRepresentative = v
		}
	}},
	{"điện thoại:", func(ext *model.Extraction, v string) {
		if ext.Phone == "" {
			ext.Phone = ExtractPhone(v)
		}
	}},
	{"ngày cấp:", func(ext *model.Extraction, v string) {
		if ext.LicenseDate == "" {
			ext.LicenseDate = ExtractDate(v)
		}
	}},
	{"ngành nghề chính:", func(ext *model.Extraction, v string) {
		if ext.MainBusinessLine == "" && utf8.RuneCountInString(v) > 5 {
			ext.MainBusinessLine = v
		}
	}},
	{"trạng thái:", func(ext *model.Extraction, v string) {
		if ext.Status == "" && utf8.RuneCountInString(v) > 2 {
			ext.Status = v
		}
	}},
	{"cập nhật:", func(ext *model.Extraction, v string) {
		if ext.LastUpdate == "" {
			ext.LastUpdate = ExtractDate(v)
		}
	}},
	{"cập nhật lần cuối:", func(ext *model.Extraction, v string) {
		if ext.LastUpdate == "" {
			ext.LastUpdate = ExtractDate(v)
		}
	}},
}

// applyLinePatterns scans labeled "Nhãn: giá trị" lines.
func applyLinePatterns(lines []string, ext *model.Extraction) {
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, ll := range lineLabels {
			idx := strings.Index(lower, ll.label)
			if idx < 0 {
				continue
			}
			value := strings.TrimSpace(line[idx+len(ll.label):])
			if value != "" {
				ll.apply(ext, value)
			}
		}
	}
}

// applyAddressShapeFallback adopts the first address-shaped line for pages
// that label nothing. It must run after the labeled-line and table stages:
// a labeled table row renders as one text line with the label glued onto
// the value, which this heuristic would otherwise capture verbatim.
func applyAddressShapeFallback(lines []string, ext *model.Extraction) {
	if ext.TaxAddress != "" {
		return
	}
	for _, line := range lines {
		if LooksLikeAddress(line) {
			ext.TaxAddress = line
			return
		}
	}
}

// applyTableRows maps label/value table rows onto still-empty fields by
// keyword containment.
func applyTableRows(page *Page, ext *model.Extraction) {
	page.EachTableRow(func(label, value string) {
		lower := strings.ToLower(label)
		switch {
		case containsAny(lower, "địa chỉ", "address"):
			if ext.TaxAddress == "" && utf8.RuneCountInString(value) > 10 {
				ext.TaxAddress = value
			}
		case containsAny(lower, "đại diện pháp luật", "giám đốc", "legal representative", "director"):
			if ext.LegalRepresentative == "" && !containsDigit(value) {
				ext.LegalRepresentative = value
			}
		case containsAny(lower, "điện thoại", "phone", "tel"):
			if ext.Phone == "" {
				ext.Phone = ExtractPhone(value)
			}
		case strings.Contains(lower, "email"):
			if ext.Email == "" {
				ext.Email = ExtractEmail(value)
			}
		case strings.Contains(lower, "ngày cấp"):
			if ext.LicenseDate == "" {
				ext.LicenseDate = ExtractDate(value)
			}
		case strings.Contains(lower, "ngành nghề"):
			if ext.MainBusinessLine == "" && utf8.RuneCountInString(value) > 5 {
				ext.MainBusinessLine = value
			}
		case containsAny(lower, "trạng thái", "tình trạng"):
			if ext.Status == "" {
				ext.Status = value
			}
		}
	})
}

// applyContactFallback mines the whole page text for phone and email when
// the structured stages found none.
func applyContactFallback(page *Page, ext *model.Extraction) {
	text := page.Text()
	if ext.Phone == "" {
		ext.Phone = ExtractPhone(text)
	}
	if ext.Email == "" {
		ext.Email = ExtractEmail(text)
	}
}

// extractActivities mines registered business lines from list items,
// preferring the section that names them.
func extractActivities(page *Page, companyName string) []string {
	items := page.SectionListItems("ngành nghề")
	if len(items) == 0 && companyName != "" {
		items = page.SectionListItems(companyName)
	}
	if len(items) == 0 {
		items = page.ListItems()
	}

	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		if !IsBusinessActivity(item) {
			continue
		}
		key := strings.ToLower(collapseSpaces(item))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, collapseSpaces(item))
		if len(out) == 10 {
			break
		}
	}
	return out
}

// finalize re-asserts the tax code, drops a phone that is really the tax
// code echoed back, and normalizes whitespace.
func finalize(ext *model.Extraction, taxCode string) {
	ext.TaxCode = taxCode
	if ext.Phone == taxCode {
		ext.Phone = ""
	}
	ext.Name = CleanCompanyName(ext.Name)
	ext.TaxAddress = collapseSpaces(ext.TaxAddress)
	ext.LegalRepresentative = collapseSpaces(ext.LegalRepresentative)
	ext.MainBusinessLine = collapseSpaces(ext.MainBusinessLine)
	ext.Status = collapseSpaces(ext.Status)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
