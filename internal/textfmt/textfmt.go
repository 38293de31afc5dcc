// Package textfmt renders message templates containing named {token}
// placeholders.
package textfmt

import (
	"sort"
	"strings"
)

// Vars maps placeholder names to their substitution values
type Vars map[string]string

// Format replaces every {name} in tmpl whose name is present in vars.
// Tokens are resolved in a single left-to-right pass, so a substituted value
// is never rescanned and names sharing a prefix cannot collide. Unknown
// tokens and unbalanced braces are copied through unchanged.
func Format(tmpl string, vars Vars) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}

	var b strings.Builder
	b.Grow(len(tmpl))

	for i := 0; i < len(tmpl); {
		open := strings.IndexByte(tmpl[i:], '{')
		if open < 0 {
			b.WriteString(tmpl[i:])
			break
		}
		open += i
		b.WriteString(tmpl[i:open])

		end := strings.IndexByte(tmpl[open+1:], '}')
		if end < 0 {
			b.WriteString(tmpl[open:])
			break
		}
		end += open + 1

		name := tmpl[open+1 : end]
		if value, ok := vars[name]; ok && isName(name) {
			b.WriteString(value)
			i = end + 1
			continue
		}

		// Not one of ours; emit the brace and keep scanning after it so a
		// nested "{{count}" still resolves the inner token
		b.WriteByte('{')
		i = open + 1
	}

	return b.String()
}

// Tokens returns the sorted, de-duplicated placeholder names used in tmpl
func Tokens(tmpl string) []string {
	seen := make(map[string]struct{})
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '{' {
			continue
		}
		end := strings.IndexByte(tmpl[i+1:], '}')
		if end < 0 {
			break
		}
		name := tmpl[i+1 : i+1+end]
		if isName(name) {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
