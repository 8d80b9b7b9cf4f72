// Command aegiscc is the AegisCC compiler front/middle-end: it parses a
// single Aegis C source file and, on demand, prints the parse tree, the
// desugared Aegis Core tree, or lowered AegisIR (spec.md §6).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Masterminds/semver/v3"

	"github.com/geeknik/aegis-c-compiler/internal/checker"
	"github.com/geeknik/aegis-c-compiler/internal/cliutil"
	"github.com/geeknik/aegis-c-compiler/internal/config"
	"github.com/geeknik/aegis-c-compiler/internal/core"
	"github.com/geeknik/aegis-c-compiler/internal/diagnostic"
	"github.com/geeknik/aegis-c-compiler/internal/ids"
	"github.com/geeknik/aegis-c-compiler/internal/ir"
	"github.com/geeknik/aegis-c-compiler/internal/lexer"
	"github.com/geeknik/aegis-c-compiler/internal/parser"
	"github.com/geeknik/aegis-c-compiler/internal/position"
	"github.com/geeknik/aegis-c-compiler/internal/watch"
)

// ExitICE is the distinguished exit code for an internal compiler error,
// separate from the non-zero-but-unspecified exit used for ordinary
// user diagnostics (spec.md §6, §7).
const ExitICE = 2

func main() {
	var (
		emitFlag    = flag.String("emit", "", "artifact to print: ast|core|ir (default: ir)")
		modeFlag    = flag.String("mode", "", "module default safety posture: safe|compat|unsafe (default: safe)")
		strictInit  = flag.Bool("strict-init", false, "reject MaybeInit reads")
		watchFlag   = flag.Bool("watch", false, "recompile on file change")
		langVersion = flag.String("require-lang-version", "", "require the compiler to satisfy this semver constraint")
		configPath  = flag.String("config", "", "load configuration from this path")
		jsonOut     = flag.Bool("json", false, "emit diagnostics/version as JSON")
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show usage")
		verbose     = flag.Bool("verbose", false, "enable verbose logging")
	)
	flag.BoolVar(showVersion, "v", false, "show version information")
	flag.BoolVar(showHelp, "h", false, "show usage")
	flag.Parse()

	if *showHelp {
		cliutil.PrintUsage()
		return
	}
	if *showVersion {
		cliutil.PrintVersion(*jsonOut)
		return
	}

	logger := cliutil.NewLogger(*verbose, false)

	cfg, err := config.Load(*configPath)
	if err != nil {
		cliutil.ExitWithError("%v", err)
	}
	if *emitFlag != "" {
		cfg.Emit = config.EmitKind(*emitFlag)
	}
	if *modeFlag != "" {
		cfg.Mode = config.Mode(*modeFlag)
	}
	if *strictInit {
		cfg.StrictInit = true
	}
	if *langVersion != "" {
		cfg.RequireLangVersion = *langVersion
	}
	if *jsonOut {
		cfg.JSON = true
	}

	if cfg.RequireLangVersion != "" {
		if err := checkLangVersion(cfg.RequireLangVersion); err != nil {
			cliutil.ExitWithError("%v", err)
		}
	}

	args := flag.Args()
	if len(args) == 0 {
		cliutil.PrintUsage()
		os.Exit(1)
	}
	inputPath := args[0]

	if *watchFlag {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		err := watch.Run(ctx, inputPath, func(path string) error {
			code := compile(path, cfg, logger)
			if code != 0 {
				logger.Warn("compile of %s exited %d", path, code)
			}
			return nil
		})
		if err != nil && err != context.Canceled {
			cliutil.ExitWithError("%v", err)
		}
		return
	}

	os.Exit(compile(inputPath, cfg, logger))
}

func checkLangVersion(constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid --require-lang-version constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(cliutil.Version)
	if err != nil {
		return fmt.Errorf("internal: compiler version %q is not valid semver: %w", cliutil.Version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("compiler version %s does not satisfy --require-lang-version %q", cliutil.Version, constraint)
	}
	return nil
}

// compile runs one translation unit end-to-end and returns the process
// exit code spec.md §6 specifies: 0 iff no diagnostics, non-zero on any
// diagnostic, ExitICE on an internal compiler error.
func compile(path string, cfg *config.Config, logger *cliutil.Logger) int {
	data, err := os.ReadFile(path)
	if err != nil {
		cliutil.ExitWithError("%v", err)
	}

	file := position.NewFile(path, string(data))
	l := lexer.New(file)

	prog, err := parser.Parse(l)
	if err != nil {
		if se, ok := err.(*parser.SyntaxError); ok {
			printDiagnostics(diagnosticsFromSyntaxError(se), cfg.JSON)
			return 1
		}
		fmt.Fprintf(os.Stderr, "internal compiler error: %v\n", err)
		return ExitICE
	}

	if cfg.Emit == config.EmitAST {
		fmt.Println(prog.String())
		return 0
	}

	logger.Debug("parsed %s", path)

	arenas := ids.New()
	desugarSink := diagnostic.NewSink()
	coreProg := core.Desugar(prog, arenas, desugarSink)

	// Desugar and the checker both drain the whole translation unit
	// before stopping, to maximize diagnostic yield (spec.md §5, §7): an
	// unsupported construct desugar can't elaborate is patched with an
	// ErrorExpr/ErrorStmt placeholder precisely so the checker can keep
	// walking past it and surface further, independent diagnostics in
	// the same run.
	result := checker.Check(coreProg, arenas)

	if desugarSink.HasDiagnostics() || result.Sink.HasDiagnostics() {
		printDiagnostics(mergeSinks(desugarSink, result.Sink), cfg.JSON)
		return 1
	}

	if cfg.Emit == config.EmitCore {
		fmt.Println(coreProg.String())
		return 0
	}

	mod := ir.NewLowerer(result).Lower(coreProg)
	fmt.Println(mod.String())
	return 0
}

// mergeSinks combines diagnostics from multiple phases into one
// deterministically-ordered sink for reporting.
func mergeSinks(sinks ...*diagnostic.Sink) *diagnostic.Sink {
	merged := diagnostic.NewSink()
	for _, s := range sinks {
		for _, d := range s.All() {
			merged.Report(d)
		}
	}
	return merged
}

func diagnosticsFromSyntaxError(se *parser.SyntaxError) *diagnostic.Sink {
	sink := diagnostic.NewSink()
	diagnostic.New("E0001", diagnostic.CategoryRejected).
		At(se.Span).
		Msg("%s", se.Message).
		Suggest(diagnostic.SuggestSplitDeclaration).
		Report(sink)
	return sink
}

func printDiagnostics(sink *diagnostic.Sink, jsonOut bool) {
	if jsonOut {
		fmt.Println(diagnosticsJSON(sink))
		return
	}
	fmt.Print(sink.Format())
}

type diagnosticJSON struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func diagnosticsJSON(sink *diagnostic.Sink) string {
	all := sink.All()
	out := make([]diagnosticJSON, len(all))
	for i, d := range all {
		out[i] = diagnosticJSON{Code: d.Code, Category: d.Category.String(), Message: d.Message}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(b)
}
