package probe

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// parseInfo parses the output of "ghc --info": a list of string pairs
// written in Haskell syntax, e.g.
//
//	[("Project name","The Glorious Glasgow Haskell Compilation System")
//	,("RTS ways","v thr dyn p")
//	]
func parseInfo(s string) (map[string]string, error) {
	p := &infoParser{s: s}
	props := make(map[string]string)

	p.skipSpace()
	if err := p.expect('['); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return props, p.end()
	}
	for {
		p.skipSpace()
		if err := p.expect('('); err != nil {
			return nil, err
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(','); err != nil {
			return nil, err
		}
		val, err := p.str()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		props[key] = val

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return props, p.end()
		default:
			return nil, p.errorf("expected ',' or ']'")
		}
	}
}

type infoParser struct {
	s   string
	pos int
}

func (p *infoParser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse compiler info at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *infoParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *infoParser) skipSpace() {
	for p.pos < len(p.s) && strings.IndexByte(" \t\r\n", p.s[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *infoParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *infoParser) end() error {
	p.skipSpace()
	if p.pos != len(p.s) {
		return p.errorf("trailing data")
	}
	return nil
}

// str reads a double-quoted Haskell string literal.
func (p *infoParser) str() (string, error) {
	p.skipSpace()
	if err := p.expect('"'); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		if p.pos >= len(p.s) {
			return "", p.errorf("unterminated string")
		}
		c := p.s[p.pos]
		p.pos++
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
		}
	}
}

var simpleEscapes = map[byte]rune{
	'a': '\a', 'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
	'\\': '\\', '"': '"', '\'': '\'',
}

// asciiNames are the named escapes; longer names come first so "SOH" wins
// over "SO".
var asciiNames = []struct {
	name string
	r    rune
}{
	{"NUL", 0}, {"SOH", 1}, {"STX", 2}, {"ETX", 3}, {"EOT", 4}, {"ENQ", 5},
	{"ACK", 6}, {"BEL", 7}, {"BS", 8}, {"HT", 9}, {"LF", 10}, {"VT", 11},
	{"FF", 12}, {"CR", 13}, {"SO", 14}, {"SI", 15}, {"DLE", 16}, {"DC1", 17},
	{"DC2", 18}, {"DC3", 19}, {"DC4", 20}, {"NAK", 21}, {"SYN", 22}, {"ETB", 23},
	{"CAN", 24}, {"EM", 25}, {"SUB", 26}, {"ESC", 27}, {"FS", 28}, {"GS", 29},
	{"RS", 30}, {"US", 31}, {"SP", 32}, {"DEL", 127},
}

func (p *infoParser) escape(b *strings.Builder) error {
	if p.pos >= len(p.s) {
		return p.errorf("unterminated escape")
	}
	c := p.s[p.pos]
	if r, ok := simpleEscapes[c]; ok {
		p.pos++
		b.WriteRune(r)
		return nil
	}
	switch {
	case c == '&':
		p.pos++
		return nil
	case c == '^':
		if p.pos+1 >= len(p.s) {
			return p.errorf("unterminated control escape")
		}
		b.WriteRune(rune(p.s[p.pos+1]) - '@')
		p.pos += 2
		return nil
	case c >= '0' && c <= '9':
		return p.number(b, 10, "0123456789")
	case c == 'x':
		p.pos++
		return p.number(b, 16, "0123456789abcdefABCDEF")
	case c == 'o':
		p.pos++
		return p.number(b, 8, "01234567")
	case unicode.IsSpace(rune(c)):
		// string gap: backslash, whitespace, backslash
		for p.pos < len(p.s) && p.s[p.pos] != '\\' {
			p.pos++
		}
		return p.expect('\\')
	}
	rest := p.s[p.pos:]
	for _, n := range asciiNames {
		if strings.HasPrefix(rest, n.name) {
			p.pos += len(n.name)
			b.WriteRune(n.r)
			return nil
		}
	}
	return p.errorf("unknown escape \\%c", c)
}

func (p *infoParser) number(b *strings.Builder, base int, digits string) error {
	start := p.pos
	for p.pos < len(p.s) && strings.IndexByte(digits, p.s[p.pos]) >= 0 {
		p.pos++
	}
	n, err := strconv.ParseUint(p.s[start:p.pos], base, 32)
	if err != nil || n > unicode.MaxRune {
		return p.errorf("bad numeric escape")
	}
	b.WriteRune(rune(n))
	return nil
}
