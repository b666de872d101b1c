package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for tern syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes tern source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	if l.ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	if tok := l.skipWhitespaceAndComments(); tok != nil {
		return *tok
	}

	pos := l.position()

	switch l.ch {
	case 0:
		return Token{Type: TokenEOF, Literal: "", Pos: pos}
	case '+':
		return l.single(TokenPlus, pos)
	case '-':
		return l.single(TokenMinus, pos)
	case '*':
		return l.single(TokenStar, pos)
	case '/':
		return l.single(TokenSlash, pos)
	case '%':
		return l.single(TokenPercent, pos)
	case '=':
		return l.single(TokenAssign, pos)
	case ':':
		return l.single(TokenColon, pos)
	case ';':
		return l.single(TokenSemicolon, pos)
	case '(':
		return l.single(TokenLParen, pos)
	case ')':
		return l.single(TokenRParen, pos)
	case '"':
		return l.readString(pos)
	case '\'':
		return l.readCharLiteral(pos)
	}

	if isLetter(l.ch) {
		lit := l.readIdentifier()
		if t, ok := reservedWords[lit]; ok {
			return Token{Type: t, Literal: lit, Pos: pos}
		}
		return Token{Type: TokenIdentifier, Literal: lit, Pos: pos}
	}
	if isDigit(l.ch) {
		return l.readNumber(pos)
	}

	tok := l.errorToken(pos, "unexpected character %q", l.ch)
	l.readChar()
	return tok
}

func (l *Lexer) single(t TokenType, pos Position) Token {
	lit := string(l.ch)
	l.readChar()
	return Token{Type: t, Literal: lit, Pos: pos}
}

func (l *Lexer) errorToken(pos Position, format string, args ...interface{}) Token {
	return Token{Type: TokenError, Literal: fmt.Sprintf(format, args...), Pos: pos}
}

// skipWhitespaceAndComments skips whitespace, // line comments, and /* */
// block comments. Block comments do not nest. Returns an error token for
// an unterminated block comment, nil otherwise.
func (l *Lexer) skipWhitespaceAndComments() *Token {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			pos := l.position()
			l.readChar()
			l.readChar()
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				tok := l.errorToken(pos, "unterminated block comment")
				return &tok
			}
			continue
		}
		return nil
	}
}

// readIdentifier reads an identifier: a letter or underscore followed by
// letters, digits, and underscores.
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads an integer or float literal with an optional kind
// suffix like u8 or f32. Hex literals start with 0x; a literal is a float
// when it has a decimal point, an exponent, or both.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		digits := 0
		for isHexDigit(l.ch) {
			l.readChar()
			digits++
		}
		if digits == 0 {
			return l.errorToken(pos, "hex literal has no digits")
		}
		return Token{Type: TokenInt, Literal: l.input[start:l.pos], Suffix: l.readSuffix(), Pos: pos}
	}

	for isDigit(l.ch) {
		l.readChar()
	}

	isFloat := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		isFloat = true
	}
	if (l.ch == 'e' || l.ch == 'E') && exponentFollows(l.input[l.readPos:]) {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
		isFloat = true
	}

	lit := l.input[start:l.pos]
	t := TokenInt
	if isFloat {
		t = TokenFloat
	}
	return Token{Type: t, Literal: lit, Suffix: l.readSuffix(), Pos: pos}
}

// exponentFollows reports whether rest starts with a well-formed exponent
// tail: an optional sign and at least one digit.
func exponentFollows(rest string) bool {
	i := 0
	if i < len(rest) && (rest[i] == '+' || rest[i] == '-') {
		i++
	}
	return i < len(rest) && '0' <= rest[i] && rest[i] <= '9'
}

// readSuffix reads a kind suffix directly attached to a numeric literal.
// Validity is the parser's concern; the lexer just captures the run.
func (l *Lexer) readSuffix() string {
	if !isLetter(l.ch) {
		return ""
	}
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readString reads a double-quoted string literal. The returned Literal
// holds the decoded text with escapes resolved.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening quote
	var b strings.Builder
	for {
		switch l.ch {
		case '"':
			l.readChar()
			return Token{Type: TokenString, Literal: b.String(), Pos: pos}
		case 0, '\n':
			return l.errorToken(pos, "unterminated string literal")
		case '\\':
			r, errTok := l.readEscape(pos)
			if errTok != nil {
				return *errTok
			}
			b.WriteRune(r)
		default:
			b.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// readCharLiteral reads a single-quoted character literal. The returned
// Literal holds the decoded character.
func (l *Lexer) readCharLiteral(pos Position) Token {
	l.readChar() // consume opening quote
	var r rune
	switch l.ch {
	case 0, '\n':
		return l.errorToken(pos, "unterminated character literal")
	case '\'':
		l.readChar()
		return l.errorToken(pos, "empty character literal")
	case '\\':
		dec, errTok := l.readEscape(pos)
		if errTok != nil {
			return *errTok
		}
		r = dec
	default:
		r = l.ch
		l.readChar()
	}
	if l.ch != '\'' {
		return l.errorToken(pos, "character literal not closed")
	}
	l.readChar()
	return Token{Type: TokenChar, Literal: string(r), Pos: pos}
}

// readEscape decodes one backslash escape. On failure it returns an error
// token to surface instead of the enclosing literal.
func (l *Lexer) readEscape(pos Position) (rune, *Token) {
	l.readChar() // consume backslash
	switch l.ch {
	case 'n':
		l.readChar()
		return '\n', nil
	case 'r':
		l.readChar()
		return '\r', nil
	case 't':
		l.readChar()
		return '\t', nil
	case '\\':
		l.readChar()
		return '\\', nil
	case '\'':
		l.readChar()
		return '\'', nil
	case '"':
		l.readChar()
		return '"', nil
	case '0':
		l.readChar()
		return 0, nil
	case 'u':
		l.readChar()
		var v rune
		for i := 0; i < 4; i++ {
			d, ok := hexValue(l.ch)
			if !ok {
				tok := l.errorToken(pos, `\u escape needs 4 hex digits`)
				return 0, &tok
			}
			v = v<<4 | rune(d)
			l.readChar()
		}
		if v >= 0xD800 && v <= 0xDFFF {
			tok := l.errorToken(pos, `\u escape is an unpaired surrogate`)
			return 0, &tok
		}
		return v, nil
	}
	tok := l.errorToken(pos, "unknown escape \\%c", l.ch)
	return 0, &tok
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}

func hexValue(ch rune) (byte, bool) {
	switch {
	case isDigit(ch):
		return byte(ch - '0'), true
	case 'a' <= ch && ch <= 'f':
		return byte(ch-'a') + 10, true
	case 'A' <= ch && ch <= 'F':
		return byte(ch-'A') + 10, true
	}
	return 0, false
}
