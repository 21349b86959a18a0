package hsct

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Phone candidates allow spaces, dots and dashes between digits. Mobile
// prefixes (03/05/07/08/09) are preferred over Hanoi-style landlines (02x);
// 01x prefixes were retired by the carriers and never match.
var (
	mobilePhoneRe   = regexp.MustCompile(`(?:^|[^0-9])(0[35789](?:[ .\-]?[0-9]){8})(?:[^0-9]|$)`)
	landlinePhoneRe = regexp.MustCompile(`(?:^|[^0-9])(02(?:[ .\-]?[0-9]){8,9})(?:[^0-9]|$)`)
	digitRe         = regexp.MustCompile(`[^0-9]`)
)

// ExtractPhone returns the first plausible Vietnamese phone number in text
// as bare digits, or "".
func ExtractPhone(text string) string {
	if m := mobilePhoneRe.FindStringSubmatch(text); m != nil {
		return digitRe.ReplaceAllString(m[1], "")
	}
	if m := landlinePhoneRe.FindStringSubmatch(text); m != nil {
		return digitRe.ReplaceAllString(m[1], "")
	}
	return ""
}

var dateRe = regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4}|\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2})\b`)

// ExtractDate returns the first date-shaped token in text, or "". The check
// is purely syntactic; the source site mixes D/M/YYYY and YYYY/M/D freely
// and calendar validation would reject real values.
func ExtractDate(text string) string {
	return dateRe.FindString(text)
}

var addressIndicators = []string{
	"số", "lô", "đường", "phường", "quận", "thành phố", "tỉnh", "xã", "huyện",
}

var addressDisqualifiers = []string{
	"mã số thuế", "điện thoại", "email", "ngày", "năm", "tháng",
}

// LooksLikeAddress reports whether a free-text line reads like a Vietnamese
// street address: at least two locality indicators, no field-label noise,
// and long enough to be a real address.
func LooksLikeAddress(line string) bool {
	if utf8.RuneCountInString(strings.TrimSpace(line)) <= 15 {
		return false
	}
	lower := strings.ToLower(line)
	for _, bad := range addressDisqualifiers {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	hits := 0
	for _, ind := range addressIndicators {
		if strings.Contains(lower, ind) {
			hits++
		}
	}
	return hits >= 2
}

var businessKeywords = []string{
	"sản xuất", "kinh doanh", "dịch vụ", "bán", "phân phối",
	"xuất nhập khẩu", "thương mại", "chế tạo", "gia công",
}

var activityDisqualifiers = []string{
	"mã số thuế", "điện thoại", "email", "website", "http",
	"copyright", "đăng nhập", "tìm kiếm", "trang chủ",
}

// IsBusinessActivity reports whether a list item reads like a registered
// business line.
func IsBusinessActivity(text string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < 10 || n > 300 {
		return false
	}
	lower := strings.ToLower(text)
	for _, bad := range activityDisqualifiers {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	for _, kw := range businessKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// ExtractEmail returns the first plausible email address in text, skipping
// placeholder addresses.
func ExtractEmail(text string) string {
	for _, m := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if strings.Contains(lower, "example") ||
			strings.Contains(lower, "test") ||
			strings.Contains(lower, "sample") ||
			strings.Contains(lower, "demo") {
			continue
		}
		return m
	}
	return ""
}

// CleanCompanyName strips lookup-site boilerplate around a company name.
func CleanCompanyName(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	// Site-name suffixes after a separator.
	for _, sep := range []string{" - ", " | ", " – "} {
		idx := strings.Index(s, sep)
		if idx <= 0 {
			continue
		}
		tail := strings.ToLower(s[idx:])
		if strings.Contains(tail, "hsctvn") ||
			strings.Contains(tail, "mã số thuế") ||
			strings.Contains(tail, "tra cứu") {
			s = s[:idx]
		}
	}

	// Lookup-page prefixes. The generic noun after the keyword is only
	// dropped when a separator follows; otherwise it is part of the name
	// ("Tra cứu CÔNG TY TNHH ABC" keeps "CÔNG TY").
	lower := strings.ToLower(s)
	for _, p := range []string{"thông tin", "tra cứu", "hồ sơ", "chi tiết"} {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		s = strings.TrimSpace(s[len(p):])
		lower = strings.ToLower(s)
		if strings.HasPrefix(lower, "về ") {
			s = strings.TrimSpace(s[len("về "):])
			lower = strings.ToLower(s)
		}
		for _, noun := range []string{"công ty", "doanh nghiệp"} {
			if !strings.HasPrefix(lower, noun) {
				continue
			}
			after := strings.TrimSpace(s[len(noun):])
			if strings.HasPrefix(after, ":") || strings.HasPrefix(after, "-") || strings.HasPrefix(after, "–") {
				s = after
			}
		}
		break
	}

	return strings.Trim(s, ":-– ")
}

// plausibleName reports whether a cleaned name candidate is usable.
func plausibleName(s string) bool {
	return utf8.RuneCountInString(s) > 5
}

var hasDigitRe = regexp.MustCompile(`[0-9]`)

func containsDigit(s string) bool {
	return hasDigitRe.MatchString(s)
}

// Includes no-break spaces, which &nbsp; decodes to.
var spaceRunRe = regexp.MustCompile(`[\s\x{00a0}]+`)

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(s, " "))
}
