// Package xmltag writes the indented, upper-case tags used by glossary documents.
package xmltag

import (
	"regexp"
	"strings"
)

const indentUnit = "  "

var (
	escaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#039;",
	)
	// Numeric character references already present in the value survive escaping.
	numericRefRe = regexp.MustCompile(`(?i)&amp;#(\d+|x[0-9a-f]+);`)
	newlineRe    = regexp.MustCompile("\r\n|\r")
)

// StartTag returns an opening tag indented by level, optionally followed by a newline.
func StartTag(name string, level int, newline bool) string {
	return indent(level) + "<" + strings.ToUpper(name) + ">" + eol(newline)
}

// EndTag returns a closing tag indented by level, optionally followed by a newline.
func EndTag(name string, level int, newline bool) string {
	return indent(level) + "</" + strings.ToUpper(name) + ">" + eol(newline)
}

// FullTag returns an element holding value. The opening tag is indented by
// level; the closing tag follows the value directly and always ends the line.
func FullTag(name string, level int, newline bool, value string) string {
	return StartTag(name, level, newline) + Escape(value) + EndTag(name, 0, true)
}

// Escape applies XML escaping, keeps numeric character references and
// normalises line endings to LF.
func Escape(value string) string {
	s := escaper.Replace(value)
	s = numericRefRe.ReplaceAllString(s, "&#$1;")
	return newlineRe.ReplaceAllString(s, "\n")
}

func indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(indentUnit, level)
}

func eol(newline bool) string {
	if newline {
		return "\n"
	}
	return ""
}
