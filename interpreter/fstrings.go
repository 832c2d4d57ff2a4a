package interpreter

import (
	"fmt"
	"strings"
)

// rewriteFStrings turns Python f-strings into Starlark's .format() calls,
// since Starlark's grammar has no f-string production at all. This is a
// character-level scan rather than a regexp because expressions inside the
// {...} braces can themselves contain nested braces, quotes and parens
// (e.g. f"{d['a']}" or f"{ {1,2,3} }"), which no single regular expression
// balances correctly.
func rewriteFStrings(source string) (string, error) {
	var out strings.Builder
	n := len(source)
	i := 0
	for i < n {
		if prefixLen, quote, triple, ok := fstringPrefix(source, i); ok {
			delim := string(quote)
			if triple {
				delim = strings.Repeat(string(quote), 3)
			}
			start := i + prefixLen
			if !strings.HasPrefix(source[start:], delim) {
				out.WriteByte(source[i])
				i++
				continue
			}
			contentStart := start + len(delim)
			end := findDelimEnd(source, contentStart, delim)
			if end < 0 {
				return "", fmt.Errorf("interpreter: unterminated f-string starting at offset %d", i)
			}
			replacement, err := convertFString(source[contentStart:end], delim)
			if err != nil {
				return "", err
			}
			out.WriteString(replacement)
			i = end + len(delim)
			continue
		}
		out.WriteByte(source[i])
		i++
	}
	return out.String(), nil
}

// fstringPrefix reports whether source[i:] begins with an f-string prefix
// (f, F, fr, rf, Fr, rF, ...) immediately followed by a quote, returning the
// prefix length and the quote style.
func fstringPrefix(source string, i int) (prefixLen int, quote byte, triple bool, ok bool) {
	n := len(source)
	j := i
	sawF := false
	sawR := false
	for j < n && j < i+2 {
		c := source[j]
		if (c == 'f' || c == 'F') && !sawF {
			sawF = true
			j++
			continue
		}
		if (c == 'r' || c == 'R') && !sawR {
			sawR = true
			j++
			continue
		}
		break
	}
	if !sawF || j >= n {
		return 0, 0, false, false
	}
	q := source[j]
	if q != '"' && q != '\'' {
		return 0, 0, false, false
	}
	tri := strings.HasPrefix(source[j:], strings.Repeat(string(q), 3))
	return j - i, q, tri, true
}

// findDelimEnd finds the index of the next unescaped occurrence of delim at
// or after pos.
func findDelimEnd(source string, pos int, delim string) int {
	n := len(source)
	for i := pos; i < n; i++ {
		if source[i] == '\\' {
			i++
			continue
		}
		if strings.HasPrefix(source[i:], delim) {
			return i
		}
	}
	return -1
}

// convertFString turns an f-string's content into a "template".format(args)
// expression: literal text passes through (with {{ / }} kept doubled,
// which .format reads as a literal brace), each {expr} becomes a bare {}
// placeholder plus an appended format argument, and a trailing :spec or
// !conv after an expression is dropped since .format's own mini-language
// differs from Python's.
func convertFString(content, delim string) (string, error) {
	var template strings.Builder
	var exprs []string
	n := len(content)
	i := 0
	for i < n {
		c := content[i]
		switch {
		case c == '{' && i+1 < n && content[i+1] == '{':
			template.WriteString("{{")
			i += 2
		case c == '}' && i+1 < n && content[i+1] == '}':
			template.WriteString("}}")
			i += 2
		case c == '{':
			j := i + 1
			depth := 1
			for j < n && depth > 0 {
				switch content[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto found
					}
				}
				j++
			}
			return "", fmt.Errorf("interpreter: unbalanced { in f-string")
		found:
			expr := stripFormatSpec(content[i+1 : j])
			exprs = append(exprs, strings.TrimSpace(expr))
			template.WriteString("{}")
			i = j + 1
		default:
			template.WriteByte(c)
			i++
		}
	}

	quote := `"`
	if strings.Contains(template.String(), `"`) {
		quote = `'`
	}
	return quote + template.String() + quote + ".format(" + strings.Join(exprs, ", ") + ")", nil
}

// stripFormatSpec drops a top-level :format-spec or !conversion suffix from
// an f-string expression, e.g. "x:.2f" -> "x", "name!r" -> "name".
func stripFormatSpec(expr string) string {
	depth := 0
	for i, c := range expr {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':', '!':
			if depth == 0 {
				return expr[:i]
			}
		}
	}
	return expr
}
