// Package sanitize normalizes single-line labels such as chat titles and
// ticket subjects. Free text is stored as typed; escaping happens where it is
// rendered.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

// Title collapses whitespace runs to one space and cuts the result to
// maxRunes. A maxRunes of zero disables the cut.
func Title(s string, maxRunes int) string {
	result := strings.Join(strings.Fields(s), " ")
	if maxRunes > 0 && utf8.RuneCountInString(result) > maxRunes {
		result = strings.TrimSpace(string([]rune(result)[:maxRunes]))
	}
	return result
}
