package compiler

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/chazu/tern/bytecode"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for tern syntax
// ---------------------------------------------------------------------------

// Parser parses tern source code into an AST.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	diags     []Diagnostic
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token. Lexer error tokens are reported
// once and skipped so the parser only ever sees well-formed tokens.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	for {
		tok := p.lexer.NextToken()
		if tok.Type != TokenError {
			p.peekToken = tok
			return
		}
		p.diags = append(p.diags, errorDiag(tok.Pos, "%s", tok.Literal))
	}
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected %s, got %s", t, p.curToken.Type)
	return false
}

// errorf records a parse error at the current token.
func (p *Parser) errorf(format string, args ...interface{}) {
	p.diags = append(p.diags, errorDiag(p.curToken.Pos, format, args...))
}

// errorAt records a parse error at a specific position.
func (p *Parser) errorAt(pos Position, format string, args ...interface{}) {
	p.diags = append(p.diags, errorDiag(pos, format, args...))
}

// Diagnostics returns accumulated parse diagnostics.
func (p *Parser) Diagnostics() []Diagnostic {
	return p.diags
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses the whole input. A statement that fails to parse is
// skipped up to the next semicolon so later statements still produce
// diagnostics.
func (p *Parser) ParseProgram() *Program {
	startPos := p.curToken.Pos
	prog := &Program{}
	for !p.curTokenIs(TokenEOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		} else {
			p.synchronize()
		}
	}
	prog.SpanVal = MakeSpan(startPos, p.curToken.Pos)
	return prog
}

// synchronize skips tokens up to and including the next semicolon.
func (p *Parser) synchronize() {
	for !p.curTokenIs(TokenSemicolon) && !p.curTokenIs(TokenEOF) {
		p.nextToken()
	}
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
	}
}

// parseStatement parses a single statement.
func (p *Parser) parseStatement() Stmt {
	switch p.curToken.Type {
	case TokenLet:
		return p.parseLet()
	case TokenPrint:
		return p.parsePrint()
	default:
		return p.parseExprStatement()
	}
}

// parseLet parses: let name (: type)? = expr ;
func (p *Parser) parseLet() Stmt {
	startPos := p.curToken.Pos
	p.nextToken() // consume let

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected variable name after let, got %s", p.curToken.Type)
		return nil
	}
	name := p.curToken.Literal
	namePos := p.curToken.Pos
	p.nextToken()

	var typeName string
	if p.curTokenIs(TokenColon) {
		p.nextToken()
		if !p.curTokenIs(TokenIdentifier) {
			p.errorf("expected type name after colon, got %s", p.curToken.Type)
			return nil
		}
		typeName = p.curToken.Literal
		p.nextToken()
	}

	if !p.expect(TokenAssign) {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if !p.expect(TokenSemicolon) {
		return nil
	}
	return &Let{
		SpanVal:  MakeSpan(startPos, p.curToken.Pos),
		Name:     name,
		NamePos:  namePos,
		TypeName: typeName,
		Value:    value,
	}
}

// parsePrint parses: print expr ;
func (p *Parser) parsePrint() Stmt {
	startPos := p.curToken.Pos
	p.nextToken() // consume print

	value := p.parseExpr()
	if value == nil {
		return nil
	}
	if !p.expect(TokenSemicolon) {
		return nil
	}
	return &Print{
		SpanVal: MakeSpan(startPos, p.curToken.Pos),
		Value:   value,
	}
}

// parseExprStatement parses: expr ;
func (p *Parser) parseExprStatement() Stmt {
	startPos := p.curToken.Pos
	expr := p.parseExpr()
	if expr == nil {
		p.errorAt(startPos, "expected statement, got %s", p.curToken.Type)
		return nil
	}
	if !p.expect(TokenSemicolon) {
		return nil
	}
	return &ExprStmt{
		SpanVal: MakeSpan(startPos, p.curToken.Pos),
		Expr:    expr,
	}
}

// ---------------------------------------------------------------------------
// Expression parsing (operator precedence)
// ---------------------------------------------------------------------------

// parseExpr parses additive expressions (lowest precedence).
func (p *Parser) parseExpr() Expr {
	left := p.parseTerm()
	if left == nil {
		return nil
	}
	for p.curTokenIs(TokenPlus) || p.curTokenIs(TokenMinus) {
		op := p.curToken.Type
		p.nextToken()
		right := p.parseTerm()
		if right == nil {
			return nil
		}
		left = &Binary{
			SpanVal: MakeSpan(left.Span().Start, right.Span().End),
			Op:      op,
			Left:    left,
			Right:   right,
		}
	}
	return left
}

// parseTerm parses multiplicative expressions.
func (p *Parser) parseTerm() Expr {
	left := p.parseFactor()
	if left == nil {
		return nil
	}
	for p.curTokenIs(TokenStar) || p.curTokenIs(TokenSlash) || p.curTokenIs(TokenPercent) {
		op := p.curToken.Type
		p.nextToken()
		right := p.parseFactor()
		if right == nil {
			return nil
		}
		left = &Binary{
			SpanVal: MakeSpan(left.Span().Start, right.Span().End),
			Op:      op,
			Left:    left,
			Right:   right,
		}
	}
	return left
}

// parseFactor parses unary minus, binding tighter than * and /.
func (p *Parser) parseFactor() Expr {
	if p.curTokenIs(TokenMinus) {
		startPos := p.curToken.Pos
		p.nextToken()
		operand := p.parseFactor()
		if operand == nil {
			return nil
		}
		return &Unary{
			SpanVal: MakeSpan(startPos, operand.Span().End),
			Op:      TokenMinus,
			Operand: operand,
		}
	}
	return p.parsePrimary()
}

// parsePrimary parses literals, identifiers, and parenthesized
// expressions.
func (p *Parser) parsePrimary() Expr {
	tok := p.curToken
	switch tok.Type {
	case TokenInt:
		p.nextToken()
		return p.intLiteral(tok)
	case TokenFloat:
		p.nextToken()
		return p.floatLiteral(tok)
	case TokenString:
		p.nextToken()
		return &StringLit{SpanVal: p.spanFrom(tok.Pos), Value: tok.Literal}
	case TokenChar:
		p.nextToken()
		return p.charLiteral(tok)
	case TokenTrue, TokenFalse:
		p.nextToken()
		return &BoolLit{SpanVal: p.spanFrom(tok.Pos), Value: tok.Type == TokenTrue}
	case TokenIdentifier:
		p.nextToken()
		end := tok.Pos
		end.Offset += len(tok.Literal)
		end.Column += len(tok.Literal)
		return &Ident{SpanVal: MakeSpan(tok.Pos, end), Name: tok.Literal}
	case TokenLParen:
		p.nextToken()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if !p.expect(TokenRParen) {
			return nil
		}
		return expr
	}
	p.errorf("expected expression, got %s", tok.Type)
	return nil
}

// spanFrom builds a span from a start position to the current token.
func (p *Parser) spanFrom(start Position) Span {
	return MakeSpan(start, p.curToken.Pos)
}

// intLiteral converts an integer token, validating range and suffix.
func (p *Parser) intLiteral(tok Token) Expr {
	lit := tok.Literal
	var v uint64
	var err error
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		v, err = strconv.ParseUint(lit[2:], 16, 64)
	} else {
		v, err = strconv.ParseUint(lit, 10, 64)
	}
	if err != nil {
		p.errorAt(tok.Pos, "integer literal %s out of range", lit)
		return nil
	}
	if tok.Suffix != "" {
		k, ok := bytecode.KindFromName(tok.Suffix)
		if !ok || !k.IsInteger() {
			p.errorAt(tok.Pos, "invalid integer suffix %q", tok.Suffix)
			return nil
		}
	}
	return &IntLit{SpanVal: p.spanFrom(tok.Pos), Value: v, Suffix: tok.Suffix}
}

// floatLiteral converts a float token, validating the suffix.
func (p *Parser) floatLiteral(tok Token) Expr {
	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorAt(tok.Pos, "float literal %s out of range", tok.Literal)
		return nil
	}
	if tok.Suffix != "" {
		k, ok := bytecode.KindFromName(tok.Suffix)
		if !ok || !k.IsFloat() {
			p.errorAt(tok.Pos, "invalid float suffix %q", tok.Suffix)
			return nil
		}
	}
	return &FloatLit{SpanVal: p.spanFrom(tok.Pos), Value: v, Suffix: tok.Suffix}
}

// charLiteral converts a character token. The value must be a single
// UTF-16 code unit, so code points beyond the basic multilingual plane
// are rejected.
func (p *Parser) charLiteral(tok Token) Expr {
	units := utf16.Encode([]rune(tok.Literal))
	if len(units) != 1 {
		p.errorAt(tok.Pos, "character %q does not fit in a single UTF-16 code unit", tok.Literal)
		return nil
	}
	return &CharLit{SpanVal: p.spanFrom(tok.Pos), Value: units[0]}
}
