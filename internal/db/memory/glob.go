package memory

import "errors"

var errBadPattern = errors.New("syntax error in pattern")

type tokenKind uint8

const (
	tokLiteral tokenKind = iota
	tokAny
	tokStar
	tokClass
)

type byteRange struct{ lo, hi byte }

type globToken struct {
	kind   tokenKind
	lit    byte
	negate bool
	ranges []byteRange
}

func (t globToken) matches(c byte) bool {
	switch t.kind {
	case tokLiteral:
		return t.lit == c
	case tokAny:
		return true
	case tokClass:
		in := false
		for _, r := range t.ranges {
			if c >= r.lo && c <= r.hi {
				in = true
				break
			}
		}
		return in != t.negate
	}
	return false
}

// compileGlob parses a Redis KEYS/SCAN pattern. Unlike path.Match, '*' and '?'
// match any byte including '/'.
func compileGlob(pattern string) ([]globToken, error) {
	var toks []globToken
	for i := 0; i < len(pattern); {
		switch c := pattern[i]; c {
		case '*':
			if n := len(toks); n == 0 || toks[n-1].kind != tokStar {
				toks = append(toks, globToken{kind: tokStar})
			}
			i++
		case '?':
			toks = append(toks, globToken{kind: tokAny})
			i++
		case '\\':
			if i+1 >= len(pattern) {
				return nil, errBadPattern
			}
			toks = append(toks, globToken{kind: tokLiteral, lit: pattern[i+1]})
			i += 2
		case '[':
			tok, next, err := compileClass(pattern, i+1)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		default:
			toks = append(toks, globToken{kind: tokLiteral, lit: c})
			i++
		}
	}
	return toks, nil
}

// compileClass parses the body of a [...] class starting at i and returns the
// index just past the closing bracket.
func compileClass(pattern string, i int) (globToken, int, error) {
	tok := globToken{kind: tokClass}
	if i < len(pattern) && pattern[i] == '^' {
		tok.negate = true
		i++
	}
	for i < len(pattern) {
		if pattern[i] == ']' {
			return tok, i + 1, nil
		}
		lo, n, err := classByte(pattern, i)
		if err != nil {
			return tok, 0, err
		}
		i += n
		hi := lo
		if i+1 < len(pattern) && pattern[i] == '-' && pattern[i+1] != ']' {
			hi, n, err = classByte(pattern, i+1)
			if err != nil {
				return tok, 0, err
			}
			i += 1 + n
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		tok.ranges = append(tok.ranges, byteRange{lo: lo, hi: hi})
	}
	return tok, 0, errBadPattern
}

func classByte(pattern string, i int) (byte, int, error) {
	if pattern[i] != '\\' {
		return pattern[i], 1, nil
	}
	if i+1 >= len(pattern) {
		return 0, 0, errBadPattern
	}
	return pattern[i+1], 2, nil
}

func matchTokens(toks []globToken, s string) bool {
	for len(toks) > 0 {
		if toks[0].kind == tokStar {
			rest := toks[1:]
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchTokens(rest, s[i:]) {
					return true
				}
			}
			return false
		}
		if len(s) == 0 || !toks[0].matches(s[0]) {
			return false
		}
		toks, s = toks[1:], s[1:]
	}
	return s == ""
}
