package compiler

import (
	"bytes"
	"io"
	"testing"

	"github.com/chazu/tern/bytecode"
	"github.com/chazu/tern/vm"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

func FuzzLexer(f *testing.F) {
	seeds := []string{
		// Basic tokens
		`+ - * / % = : ; ( )`,
		// Integers
		`42`, `0`, `0xFF`, `0X1f`, `7u8`, `123i64`, `0xFFu8`,
		// Floats
		`3.14`, `0.5`, `1e10`, `1.5e-3`, `2.0E+5`, `2.5f32`, `0.25f16`,
		// Strings
		`"hello"`, `""`, `"tab\there"`, `"A"`, `"café"`,
		// Chars
		`'a'`, `'\n'`, `'\''`, `'é'`,
		// Identifiers and reserved words
		`foo`, `_private`, `total_2`, `let`, `print`, `true`, `false`,
		// Comments
		`// line comment`, `/* block */`, "foo // c\nbar",
		// Complete statements
		`let x = 42;`,
		`let ratio: f32 = 1.5;`,
		`print x + y * z;`,
		`print "hi";`,
		// Edge cases
		`'`, `"`, `0x`, `1.`, `1ex`, `/*`, `\`, `@`,
		`"unterminated`, `'ab'`, `"\uD800"`, `"\q"`,
		// Unicode
		`"こんにちは"`, `'é'`, `"émoji"`,
		// Empty and whitespace
		``, `   `, "\t\n\r",
		// Operator soup
		`+-*/%=:;()`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("lexer panicked on input %q: %v", data, r)
			}
		}()

		l := NewLexer(data)
		for i := 0; i < len(data)+100; i++ {
			tok := l.NextToken()
			if tok.Type == TokenEOF {
				return
			}
			if tok.Type == TokenError && tok.Literal == "" {
				t.Errorf("error token with no message on input %q", data)
			}
		}
		t.Errorf("lexer did not reach EOF on input %q", data)
	})
}

// ---------------------------------------------------------------------------
// FuzzParser: ensure the parser never panics on arbitrary input. Parse
// errors are acceptable; panics are not.
// ---------------------------------------------------------------------------

func FuzzParser(f *testing.F) {
	seeds := []string{
		// Statements
		`let x = 42;`,
		`let y: i64 = -5;`,
		`let s = "hello";`,
		`print x + y;`,
		`1 + 2 * 3;`,
		`-(a + b);`,
		`((x));`,
		// Multi-statement programs
		"let a = 1;\nlet b = a;\nprint a + b;",
		// Error shapes
		``, `;`, `let`, `let x`, `let x =`, `let x = ;`, `let = 1;`,
		`print`, `print ;`, `(`, `)`, `1 +`, `+ 1;`, `let x: = 5;`,
		`let x: nope = 5;`,
		// Literal edge cases
		`18446744073709551616;`, `7f32;`, `2.5u8;`, `123xyz;`,
		`0x;`, `'ab';`, `'';`,
		// Lexer errors inside statements
		`let x = 1 @ 2;`, `let s = "open;`,
		// Deep nesting
		`((((((((((1))))))))));`,
		`1+1+1+1+1+1+1+1+1+1+1+1;`,
		`- - - - - -1;`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("parser panicked on input %q: %v", data, r)
			}
		}()

		p := NewParser(data)
		prog := p.ParseProgram()
		if prog == nil {
			t.Fatalf("nil program for input %q", data)
		}
		_ = p.Diagnostics()
		for _, stmt := range prog.Statements {
			if StmtString(stmt) == "" {
				t.Errorf("empty rendering for statement in input %q", data)
			}
		}
	})
}

// ---------------------------------------------------------------------------
// FuzzCompile: arbitrary source through the full pipeline. When a program
// compiles, its script must survive a serialization round trip unchanged
// and execute without panicking; runtime errors are acceptable.
// ---------------------------------------------------------------------------

func FuzzCompile(f *testing.F) {
	seeds := []string{
		`print 1 + 2;`,
		"let a = 2;\nlet b = 3;\nprint a * b;",
		`let x: i64 = 1 + 2; print x;`,
		`print 1 + 2.5;`,
		`print 7u8 + 3u8;`,
		`print -x;`,
		`let s = "hi"; print s;`,
		`print true; print 'A';`,
		`print 1 / 0;`,
		`print 127i8 + 1i8;`,
		`let h: f16 = 1.5; print h;`,
		`1 + 2;`,
		`let unused = 1;`,
		// Kind errors
		`let x: u8 = 300;`,
		`print true + 1;`,
		`let a = 1; let b = 2.5; print a + b;`,
		// Parse errors
		`let = ;`, ``,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("pipeline panicked on input %q: %v", data, r)
			}
		}()

		res, diags := Compile(data, Options{Debug: true})
		if res == nil {
			if !HasErrors(diags) {
				t.Fatalf("nil result with no errors for input %q", data)
			}
			return
		}

		raw, err := res.Script.Serialize()
		if err != nil {
			t.Fatalf("serialize failed for input %q: %v", data, err)
		}
		script, err := bytecode.Deserialize(raw)
		if err != nil {
			t.Fatalf("compiled script rejected by deserializer for input %q: %v", data, err)
		}
		again, err := script.Serialize()
		if err != nil {
			t.Fatalf("reserialize failed for input %q: %v", data, err)
		}
		if !bytes.Equal(raw, again) {
			t.Fatalf("script changed across round trip for input %q", data)
		}

		// Runtime errors are fine; panics are bugs.
		_ = vm.New(script, vm.Options{Output: io.Discard}).Run()
	})
}
