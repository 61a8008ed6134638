package db

import (
	"fmt"
	"strings"
)

// Query-string builders for RediSearch. Repositories compose these into a
// full FT.SEARCH query; escaping rules follow the RediSearch tag and text
// syntax.

// TagFilter builds an exact tag containment clause: @field:{value}.
func TagFilter(field, value string) string {
	return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(value))
}

// TagOrFilter builds a tag clause matching any of the given values.
func TagOrFilter(field string, values []string) string {
	escaped := make([]string, 0, len(values))
	for _, v := range values {
		escaped = append(escaped, tagEscaper.Replace(v))
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

// NumericFilter builds an inclusive numeric range clause. Zero-valued bounds
// are expressed by passing hasMin/hasMax = false.
func NumericFilter(field string, minVal float64, hasMin bool, maxVal float64, hasMax bool) string {
	lower := "-inf"
	upper := "+inf"
	if hasMin {
		lower = fmt.Sprintf("%g", minVal)
	}
	if hasMax {
		upper = fmt.Sprintf("%g", maxVal)
	}
	return fmt.Sprintf("@%s:[%s %s]", field, lower, upper)
}

// TextClause builds a relevance-scored text match over one or more TEXT
// fields: @f1|f2:(keyword).
func TextClause(fields []string, keyword string) string {
	return fmt.Sprintf("@%s:(%s)", strings.Join(fields, "|"), EscapeText(keyword))
}

// OrGroup joins clauses into a should-group: (a | b | c).
// Empty clauses are skipped; an empty group yields "".
func OrGroup(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "(" + strings.Join(kept, " | ") + ")"
}

// And joins clauses with implicit AND semantics, skipping empty ones.
func And(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " ")
}

// EscapeText escapes RediSearch query syntax in free-text input.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
