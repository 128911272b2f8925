package classifier

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// normalizeText folds compatibility forms (full-width Latin in Korean copy,
// ligatures) with NFKC, collapses all whitespace runs to one space and caps
// the result at maxRunes.
func normalizeText(text string, maxRunes int) string {
	if text == "" {
		return ""
	}
	text = strings.Join(strings.Fields(norm.NFKC.String(text)), " ")
	return truncateRunes(text, maxRunes)
}

// lookalikes rewrites place names that contain another geography's token,
// such as 인도네시아 containing 인도.
var lookalikes = strings.NewReplacer("인도네시아", "Indonesia")

// matchText is the form every pattern runs against. Previews use
// normalizeText so they keep the source wording.
func matchText(text string, maxRunes int) string {
	return lookalikes.Replace(normalizeText(text, maxRunes))
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	count := 0
	for i := range s {
		if count == maxRunes {
			return s[:i]
		}
		count++
	}
	return s
}
