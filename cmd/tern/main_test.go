package main

import (
	"path/filepath"
	"testing"

	"github.com/chazu/tern/manifest"
)

func TestScriptPath(t *testing.T) {
	cases := []struct {
		src, want string
	}{
		{"main.tern", "main.ternc"},
		{"examples/fib.tern", "examples/fib.ternc"},
		{"noext", "noext.ternc"},
	}
	for _, c := range cases {
		if got := scriptPath(c.src); got != c.want {
			t.Errorf("scriptPath(%q) = %q, want %q", c.src, got, c.want)
		}
	}
}

func TestDebugPath(t *testing.T) {
	if got := debugPath("main.ternc"); got != "main.ternd" {
		t.Errorf("debugPath = %q, want %q", got, "main.ternd")
	}
	if got := debugPath("out/prog.ternc"); got != "out/prog.ternd" {
		t.Errorf("debugPath = %q, want %q", got, "out/prog.ternd")
	}
}

func TestResolveSource_ExplicitArg(t *testing.T) {
	src, err := resolveSource([]string{"prog.tern"}, nil)
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	if src != "prog.tern" {
		t.Errorf("src = %q, want %q", src, "prog.tern")
	}
}

func TestResolveSource_ManifestEntry(t *testing.T) {
	m := &manifest.Manifest{Dir: "/proj"}
	m.Build.Entry = "main.tern"
	src, err := resolveSource(nil, m)
	if err != nil {
		t.Fatalf("resolveSource: %v", err)
	}
	want := filepath.Join("/proj", "main.tern")
	if src != want {
		t.Errorf("src = %q, want %q", src, want)
	}
}

func TestResolveSource_NoInput(t *testing.T) {
	if _, err := resolveSource(nil, nil); err == nil {
		t.Error("expected an error with no file and no manifest")
	}
}

func TestParseForKey(t *testing.T) {
	if _, ok := parseForKey("let x = 1;\nprint x;"); !ok {
		t.Error("well-formed input should parse")
	}
	if _, ok := parseForKey("let = ;"); ok {
		t.Error("malformed input should not produce a key")
	}
}

func TestParseForKeyIgnoresFormatting(t *testing.T) {
	a, ok := parseForKey("let x = 1;\nprint x;")
	if !ok {
		t.Fatal("parse failed")
	}
	b, ok := parseForKey("let x   =    1;\n\n\nprint x;")
	if !ok {
		t.Fatal("parse failed")
	}
	if len(a.Statements) != len(b.Statements) {
		t.Errorf("statement counts differ: %d vs %d", len(a.Statements), len(b.Statements))
	}
}
