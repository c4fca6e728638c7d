package vocab

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NoKanji stands in for the kanji list of a word written only in kana.
const NoKanji = "＿"

// IsKanji reports whether r is a CJK unified ideograph.
func IsKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// ExtractKanji returns the kanji of term in order of first appearance.
func ExtractKanji(term string) []string {
	seen := make(map[rune]bool)
	var out []string
	for _, r := range term {
		if !IsKanji(r) || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, string(r))
	}
	if len(out) == 0 {
		return []string{NoKanji}
	}
	return out
}

// HasKanji reports whether s contains at least one kanji.
func HasKanji(s string) bool {
	for _, r := range s {
		if IsKanji(r) {
			return true
		}
	}
	return false
}

// ToHiragana converts Katakana to Hiragana.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// SplitTags splits comma separated tag text and trims each piece. Empty
// pieces are kept so a half-typed value round-trips while editing.
func SplitTags(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	parts := strings.Split(text, ",")
	for i, p := range parts {
		parts[i] = norm.NFC.String(strings.TrimSpace(p))
	}
	return parts
}

// ParseTags is SplitTags without the empty pieces.
func ParseTags(text string) []string {
	parts := SplitTags(text)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FormatTags renders tags as editable text.
func FormatTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// CleanTags trims tags and drops empty and repeated entries, keeping order.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = norm.NFC.String(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
