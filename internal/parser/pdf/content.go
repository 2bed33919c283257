package pdf

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf16"
)

// kerningGap is the TJ displacement (thousandths of an em) treated as a word gap
const kerningGap = -200

// TextFromContent decodes the text-showing operators of a page content stream.
// Tj, TJ, ' and " emit text. Td, TD, T*, ' and " start a new line and ET ends
// the current line. Font encodings are not resolved: literal strings are read
// as Latin-1 and hex strings as UTF-16BE when they carry a byte order mark.
func TextFromContent(content []byte) string {
	var (
		out      strings.Builder
		line     strings.Builder
		operands []token
	)

	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	lx := lexer{data: content}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			line.WriteString(lastString(operands))
		case "TJ":
			line.WriteString(arrayText(operands))
		case "'", "\"":
			flush()
			line.WriteString(lastString(operands))
		case "Td", "TD", "T*":
			flush()
		case "ET":
			flush()
		}
		operands = operands[:0]
	}
	flush()

	return strings.TrimRight(out.String(), "\n")
}

func lastString(operands []token) string {
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].kind == tokString {
			return operands[i].text
		}
	}
	return ""
}

func arrayText(operands []token) string {
	var sb strings.Builder
	for _, op := range operands {
		switch op.kind {
		case tokString:
			sb.WriteString(op.text)
		case tokNumber:
			if n, err := strconv.ParseFloat(op.text, 64); err == nil && n <= kerningGap {
				sb.WriteByte(' ')
			}
		}
	}
	return sb.String()
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokOperator
	tokDelim
)

type token struct {
	kind tokenKind
	text string
}

type lexer struct {
	data []byte
	pos  int
}

func isWhite(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (l *lexer) next() (token, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isWhite(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return token{kind: tokString, text: l.literal()}, true
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return token{kind: tokDelim, text: "<<"}, true
			}
			l.pos++
			return token{kind: tokString, text: l.hex()}, true
		case c == '>':
			l.pos++
			if l.pos < len(l.data) && l.data[l.pos] == '>' {
				l.pos++
			}
			return token{kind: tokDelim, text: ">>"}, true
		case c == '[' || c == ']' || c == '{' || c == '}':
			l.pos++
			return token{kind: tokDelim, text: string(c)}, true
		case c == '/':
			l.pos++
			return token{kind: tokName, text: l.word()}, true
		default:
			w := l.word()
			if w == "" {
				l.pos++
				continue
			}
			if w == "BI" {
				l.skipInlineImage()
				continue
			}
			if isNumber(w) {
				return token{kind: tokNumber, text: w}, true
			}
			return token{kind: tokOperator, text: w}, true
		}
	}
	return token{}, false
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.data) && !isWhite(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func isNumber(w string) bool {
	_, err := strconv.ParseFloat(w, 64)
	return err == nil
}

// literal reads a parenthesised string; the opening paren is consumed
func (l *lexer) literal() string {
	var buf []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			if l.pos >= len(l.data) {
				return latin1(buf)
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data); i++ {
						d := l.data[l.pos]
						if d < '0' || d > '7' {
							break
						}
						v = v*8 + int(d-'0')
						l.pos++
					}
					buf = append(buf, byte(v))
				} else {
					buf = append(buf, e)
				}
			}
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return latin1(buf)
			}
			buf = append(buf, c)
		default:
			buf = append(buf, c)
		}
	}
	return latin1(buf)
}

// hex reads a hex string; the opening angle bracket is consumed
func (l *lexer) hex() string {
	end := bytes.IndexByte(l.data[l.pos:], '>')
	var raw []byte
	if end < 0 {
		raw = l.data[l.pos:]
		l.pos = len(l.data)
	} else {
		raw = l.data[l.pos : l.pos+end]
		l.pos += end + 1
	}

	digits := make([]byte, 0, len(raw))
	for _, c := range raw {
		if !isWhite(c) {
			digits = append(digits, c)
		}
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	decoded := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		decoded = append(decoded, byte(v))
	}

	if len(decoded) >= 2 && decoded[0] == 0xFE && decoded[1] == 0xFF {
		return utf16BE(decoded[2:])
	}
	return latin1(decoded)
}

func (l *lexer) skipInlineImage() {
	idx := bytes.Index(l.data[l.pos:], []byte("EI"))
	if idx < 0 {
		l.pos = len(l.data)
		return
	}
	l.pos += idx + 2
}

func latin1(b []byte) string {
	runes := make([]rune, 0, len(b))
	for _, c := range b {
		if c < 0x20 && c != '\n' && c != '\t' {
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}

func utf16BE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(units))
}
