// Tern CLI - the main entry point for building and running tern programs
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/tern/bytecode"
	"github.com/chazu/tern/cache"
	"github.com/chazu/tern/compiler"
	"github.com/chazu/tern/compiler/hash"
	"github.com/chazu/tern/manifest"
	"github.com/chazu/tern/server"
	"github.com/chazu/tern/vm"
)

const versionStr = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		cmdBuild(os.Args[2:])
	case "run":
		cmdRun(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "dump":
		cmdDump(os.Args[2:])
	case "lsp":
		cmdLsp(os.Args[2:])
	case "version":
		fmt.Printf("tern version %s\n", versionStr)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: tern <command> [options] [file]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  build [-g] [-o out] [file]  Compile a .tern source file to a .ternc script\n")
	fmt.Fprintf(os.Stderr, "  run [-trace] [file]         Run a .tern source file or a compiled .ternc script\n")
	fmt.Fprintf(os.Stderr, "  check [files...]            Report diagnostics without producing output\n")
	fmt.Fprintf(os.Stderr, "  dump <file.ternc>           Disassemble a compiled script\n")
	fmt.Fprintf(os.Stderr, "  lsp                         Start the language server on stdio\n")
	fmt.Fprintf(os.Stderr, "  version                     Print the tool version\n")
	fmt.Fprintf(os.Stderr, "\nWith no file argument, build and run use the entry point from the\n")
	fmt.Fprintf(os.Stderr, "nearest tern.toml manifest.\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  tern build -g main.tern   # Compile with a main.ternd debug sidecar\n")
	fmt.Fprintf(os.Stderr, "  tern run                  # Run the manifest's entry point\n")
	fmt.Fprintf(os.Stderr, "  tern dump main.ternc      # Show the compiled data and code sections\n")
}

func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	debug := fs.Bool("g", false, "Write a .ternd debug sidecar next to the output")
	output := fs.String("o", "", "Output path (default: source with .ternc extension)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tern build [-g] [-o out] [file]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	src, err := resolveSource(fs.Args(), m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// An explicit file argument derives its own output name; the
	// manifest's build section applies when building its entry point.
	withDebug := *debug
	out := *output
	if fs.NArg() == 0 && m != nil {
		withDebug = withDebug || m.Build.Debug
		if out == "" {
			out = m.OutputPath()
		}
	}
	if out == "" {
		out = scriptPath(src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	res, diags := compiler.Compile(string(data), compiler.Options{Source: src, Debug: withDebug})
	reportDiags(src, diags)
	if res == nil {
		os.Exit(1)
	}

	encoded, err := res.Script.Serialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if withDebug {
		sidecar, err := res.Debug.Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(debugPath(out), sidecar, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	trace := fs.Bool("trace", false, "Trace each executed instruction to stderr")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tern run [-trace] [file]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path, err := resolveSource(fs.Args(), m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var script *bytecode.Script
	if filepath.Ext(path) == ".ternc" {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		script, err = bytecode.Deserialize(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	} else {
		script = compileSource(path, m)
	}

	opts := vm.Options{}
	if *trace {
		opts.Trace = os.Stderr
	}
	if err := vm.New(script, opts).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tern check [files...]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	files := fs.Args()
	if len(files) == 0 {
		src, err := resolveSource(nil, m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		files = []string{src}
	}

	failed := false
	for _, src := range files {
		data, err := os.ReadFile(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			failed = true
			continue
		}
		_, diags := compiler.Compile(string(data), compiler.Options{Source: src})
		reportDiags(src, diags)
		if compiler.HasErrors(diags) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func cmdDump(args []string) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tern dump <file.ternc>\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	script, err := bytecode.Deserialize(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var dbg *bytecode.DebugInfo
	if sidecar, err := os.ReadFile(debugPath(path)); err == nil {
		dbg, err = bytecode.UnmarshalDebugInfo(sidecar)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ignoring debug sidecar: %v\n", err)
			dbg = nil
		}
	}

	fmt.Print(script.DisassembleWithDebug(dbg))
}

func cmdLsp(args []string) {
	fs := flag.NewFlagSet("lsp", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tern lsp\n\n")
		fmt.Fprintf(os.Stderr, "Speaks the language server protocol over stdin/stdout.\n")
	}
	fs.Parse(args)

	if err := server.NewLSP().Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// compileSource compiles a source file for execution, going through the
// project cache when the manifest enables it. Diagnostics go to stderr;
// the process exits on errors.
func compileSource(path string, m *manifest.Manifest) *bytecode.Script {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	input := string(data)

	var store *cache.Store
	var key [32]byte
	if m != nil && m.Cache.Enabled {
		if prog, ok := parseForKey(input); ok {
			key = hash.HashProgram(prog)
			store, err = cache.Open(m.CachePath())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cache unavailable: %v\n", err)
				store = nil
			}
		}
	}
	if store != nil {
		defer store.Close()
		script, err := store.Get(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if script != nil {
			return script
		}
	}

	res, diags := compiler.Compile(input, compiler.Options{Source: path})
	reportDiags(path, diags)
	if res == nil {
		os.Exit(1)
	}

	if store != nil {
		if err := store.Put(key, res.Script); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot cache script: %v\n", err)
		}
	}
	return res.Script
}

// parseForKey parses input just far enough to compute its cache key. The
// key hashes the parsed program, so formatting-only edits keep their
// cache entry.
func parseForKey(input string) (*compiler.Program, bool) {
	parser := compiler.NewParser(input)
	prog := parser.ParseProgram()
	if compiler.HasErrors(parser.Diagnostics()) {
		return nil, false
	}
	return prog, true
}

// resolveSource returns the file to operate on: the first argument when
// given, otherwise the manifest's entry point.
func resolveSource(args []string, m *manifest.Manifest) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if m == nil {
		return "", fmt.Errorf("no input file and no tern.toml manifest found")
	}
	return m.EntryPath(), nil
}

// reportDiags prints diagnostics to stderr, prefixed with the source path.
func reportDiags(src string, diags []compiler.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s: %v\n", src, d)
	}
}

// scriptPath maps main.tern to main.ternc.
func scriptPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".ternc"
}

// debugPath maps main.ternc to main.ternd.
func debugPath(out string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + ".ternd"
}
