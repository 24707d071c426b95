package db

import (
	"strings"
)

// Words that terminate a FROM/JOIN table list and can never be read as an
// implicit alias.
var prefixStopWords = map[string]struct{}{
	"where": {}, "on": {}, "using": {}, "group": {}, "order": {},
	"limit": {}, "having": {}, "union": {}, "left": {}, "right": {},
	"inner": {}, "outer": {}, "cross": {}, "natural": {}, "join": {},
	"straight_join": {}, "set": {}, "values": {}, "for": {}, "into": {},
	"select": {}, "update": {}, "and": {}, "or": {}, "not": {}, "as": {},
	"use": {}, "force": {}, "ignore": {},
}

// RewritePrefix rewrites every bare table reference in the FROM/JOIN clauses
// of sqlText to `prefix+name` with an explicit alias equal to the original
// name (or the reference's own alias). Backtick-quoted identifiers and
// comma-separated table lists are handled; derived tables and dotted names
// pass through untouched. An empty prefix returns sqlText unchanged.
func RewritePrefix(prefix, sqlText string) string {
	if prefix == "" {
		return sqlText
	}

	var b strings.Builder
	b.Grow(len(sqlText) + 32)

	i := 0
	n := len(sqlText)
	for i < n {
		c := sqlText[i]

		// Copy string literals verbatim so keywords inside them are ignored
		if c == '\'' || c == '"' {
			end := skipQuoted(sqlText, i)
			b.WriteString(sqlText[i:end])
			i = end
			continue
		}

		if isWordByte(c) {
			start := i
			for i < n && isWordByte(sqlText[i]) {
				i++
			}
			word := sqlText[start:i]
			lower := strings.ToLower(word)
			if lower != "from" && lower != "join" {
				b.WriteString(word)
				continue
			}

			b.WriteString(word)

			// Preserve whitespace between the keyword and the table list
			ws := i
			for ws < n && isSpaceByte(sqlText[ws]) {
				ws++
			}
			if ws >= n || sqlText[ws] == '(' {
				// Derived table or dangling keyword; leave untouched
				continue
			}

			rewritten, end, ok := rewriteTableList(prefix, sqlText, ws)
			if !ok {
				continue
			}
			b.WriteString(sqlText[i:ws])
			b.WriteString(rewritten)
			i = end
			continue
		}

		b.WriteByte(c)
		i++
	}

	return b.String()
}

// rewriteTableList parses the comma-separated table references starting at
// pos and returns their rewritten form plus the position after the list.
func rewriteTableList(prefix, sqlText string, pos int) (string, int, bool) {
	var refs []string
	i := pos

	for {
		ref, end, ok := parseTableRef(prefix, sqlText, i)
		if !ok {
			if len(refs) == 0 {
				return "", pos, false
			}
			break
		}
		refs = append(refs, ref)
		i = end

		// A comma continues the list; anything else ends it
		j := i
		for j < len(sqlText) && isSpaceByte(sqlText[j]) {
			j++
		}
		if j < len(sqlText) && sqlText[j] == ',' {
			j++
			for j < len(sqlText) && isSpaceByte(sqlText[j]) {
				j++
			}
			i = j
			continue
		}
		break
	}

	return strings.Join(refs, ", "), i, true
}

// parseTableRef reads one table reference (name, optional AS, optional
// alias) and returns its rewritten text.
func parseTableRef(prefix, sqlText string, pos int) (string, int, bool) {
	name, i, ok := parseIdent(sqlText, pos)
	if !ok {
		return "", pos, false
	}

	afterName := i

	// Optional alias, with or without AS
	j := i
	for j < len(sqlText) && isSpaceByte(sqlText[j]) {
		j++
	}

	alias := ""
	if j < len(sqlText) {
		if candidate, end, ok := parseIdent(sqlText, j); ok {
			lower := strings.ToLower(candidate)
			if lower == "as" {
				k := end
				for k < len(sqlText) && isSpaceByte(sqlText[k]) {
					k++
				}
				if aliasIdent, aliasEnd, ok := parseIdent(sqlText, k); ok {
					alias = aliasIdent
					i = aliasEnd
				}
			} else if _, stop := prefixStopWords[lower]; !stop {
				alias = candidate
				i = end
			}
		}
	}

	if alias == "" {
		alias = name
		i = afterName
	}

	// Dotted references (db.table) are left exactly as written
	if strings.Contains(name, ".") {
		return sqlText[pos:i], i, true
	}

	return "`" + prefix + name + "` AS `" + alias + "`", i, true
}

// parseIdent reads a bare or backtick-quoted identifier.
func parseIdent(sqlText string, pos int) (string, int, bool) {
	if pos >= len(sqlText) {
		return "", pos, false
	}

	if sqlText[pos] == '`' {
		end := strings.IndexByte(sqlText[pos+1:], '`')
		if end < 0 {
			return "", pos, false
		}
		name := sqlText[pos+1 : pos+1+end]
		if name == "" {
			return "", pos, false
		}
		return name, pos + end + 2, true
	}

	if !isWordStartByte(sqlText[pos]) {
		return "", pos, false
	}

	i := pos
	for i < len(sqlText) && (isWordByte(sqlText[i]) || sqlText[i] == '.') {
		i++
	}
	return sqlText[pos:i], i, true
}

// skipQuoted returns the position just past the string literal opening at
// pos, honoring backslash escapes and doubled quotes.
func skipQuoted(sqlText string, pos int) int {
	quote := sqlText[pos]
	i := pos + 1
	for i < len(sqlText) {
		switch sqlText[i] {
		case '\\':
			i += 2
			continue
		case quote:
			if i+1 < len(sqlText) && sqlText[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(sqlText)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordStartByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
