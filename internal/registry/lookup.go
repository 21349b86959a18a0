package registry

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a Vietnamese name and strips diacritics so "Hà Nội",
// "Ha Noi" and "ha noi" all compare equal. The đ/Đ pair does not decompose
// under NFD and is replaced explicitly.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "đ", "d")
	if folded, _, err := transform.String(foldTransformer, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(s), " ")
}

// regionAliases maps common shorthand spellings to the folded official name.
var regionAliases = map[string]string{
	"hanoi":     "ha noi",
	"hn":        "ha noi",
	"hcm":       "ho chi minh",
	"tp hcm":    "ho chi minh",
	"tphcm":     "ho chi minh",
	"sai gon":   "ho chi minh",
	"saigon":    "ho chi minh",
	"danang":    "da nang",
	"hai phong": "hai phong",
}

// FindRegionByName resolves a user-supplied region name against the
// reference dataset: exact folded match, then alias, then substring.
func FindRegionByName(regions []Region, name string) (Region, bool) {
	want := Fold(name)
	if want == "" {
		return Region{}, false
	}
	if alias, ok := regionAliases[want]; ok {
		want = alias
	}

	for _, r := range regions {
		if Fold(r.Name) == want {
			return r, true
		}
	}
	for _, r := range regions {
		folded := Fold(r.Name)
		if strings.Contains(folded, want) || strings.Contains(want, folded) {
			return r, true
		}
	}
	return Region{}, false
}

// FindIndustryByName resolves a user-supplied industry name: exact folded
// match, then substring, then best word overlap.
func FindIndustryByName(industries []Industry, name string) (Industry, bool) {
	want := Fold(name)
	if want == "" {
		return Industry{}, false
	}

	for _, ind := range industries {
		if Fold(ind.Name) == want {
			return ind, true
		}
	}
	for _, ind := range industries {
		folded := Fold(ind.Name)
		if strings.Contains(folded, want) || strings.Contains(want, folded) {
			return ind, true
		}
	}

	wantWords := strings.Fields(want)
	best := -1
	bestScore := 0
	for i, ind := range industries {
		score := wordOverlap(wantWords, strings.Fields(Fold(ind.Name)))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best >= 0 && bestScore >= 2 {
		return industries[best], true
	}
	return Industry{}, false
}

func wordOverlap(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	n := 0
	for _, w := range b {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}
