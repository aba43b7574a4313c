// Package eval implements permission evaluation: matching a concrete
// resource URI against the catalog's patterns and walking a subject's
// inheritance chain under deny-wins precedence (§4.2).
package eval

import "strings"

// specificity orders how precisely a pattern describes a concrete URI.
// Lower values are more specific and win when two patterns both match.
type specificity int

const (
	specificityExact specificity = iota
	specificityParam
	specificityWildcard
)

// MatchURI reports whether pattern matches uri and, if so, how specific
// the match is. A literal segment must match exactly; "{name}" matches
// exactly one segment; a trailing "*" matches one or more remaining
// segments. Patterns are validated at creation (domain.ValidateURIPattern)
// so malformed braces are never seen here.
func MatchURI(pattern, uri string) (ok bool, spec specificity) {
	pSegs := splitPath(pattern)
	uSegs := splitPath(uri)
	if len(pSegs) == 0 || len(uSegs) == 0 {
		return false, 0
	}

	spec = specificityExact
	for i, p := range pSegs {
		if p == "*" {
			if i >= len(uSegs) {
				return false, 0
			}
			spec = maxSpecificity(spec, specificityWildcard)
			return true, spec
		}
		if i >= len(uSegs) {
			return false, 0
		}
		if isParam(p) {
			spec = maxSpecificity(spec, specificityParam)
			continue
		}
		if p != uSegs[i] {
			return false, 0
		}
	}
	if len(pSegs) != len(uSegs) {
		return false, 0
	}
	return true, spec
}

func maxSpecificity(a, b specificity) specificity {
	if b > a {
		return b
	}
	return a
}

func isParam(seg string) bool {
	return len(seg) >= 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// moreSpecific reports whether a is a strictly more specific match than b,
// used to rank multiple matching resource patterns (§4.2: "exact matches
// beat parameterized matches, which beat wildcard matches").
func moreSpecific(a, b specificity) bool {
	return a < b
}
