// Package normalize cleans user-supplied tale text before it is stored.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/unicode/norm"
)

// htmlTagPattern detects common block and inline HTML tags.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// blankLines matches three or more consecutive newlines.
var blankLines = regexp.MustCompile(`\n{3,}`)

// Line normalizes single-line text such as titles and topics:
// NFC composition, control characters removed, whitespace runs collapsed to
// one space, and the result trimmed.
func Line(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
}

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Content normalizes multi-line tale bodies. HTML is converted to Markdown;
// line endings become \n, trailing spaces are stripped from each line, and
// runs of blank lines collapse to one.
func Content(s string) string {
	if ContainsHTML(s) {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = md
		}
	}

	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}
