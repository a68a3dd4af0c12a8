// brio - compile and run Brio view modules from the command line.
//
// Usage:
//   brio build view.json -o view.brioc [--caps caps.toml]
//   brio run view.json [--caps caps.toml] [--state name=value]...
//   brio disasm view.brioc
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/brio-lang/brio/pkg/ast"
	"github.com/brio-lang/brio/pkg/bridge"
	"github.com/brio-lang/brio/pkg/bytecode"
	"github.com/brio-lang/brio/pkg/cache"
	"github.com/brio-lang/brio/pkg/state"
	"github.com/brio-lang/brio/pkg/value"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("brio")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = cmdBuild(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "disasm":
		err = cmdDisasm(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "brio: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: brio <build|run|disasm> [flags] <file>")
}

// stateFlags collects repeated --state name=value pairs.
type stateFlags map[string]value.Value

func (s stateFlags) String() string {
	parts := make([]string, 0, len(s))
	for k, v := range s {
		parts = append(parts, k+"="+v.String())
	}
	return strings.Join(parts, ",")
}

func (s stateFlags) Set(arg string) error {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return fmt.Errorf("want name=value, got %q", arg)
	}
	s[name] = parseLiteral(raw)
	return nil
}

// parseLiteral interprets a command-line value the way source literals are:
// int, then double, then bool, falling back to string.
func parseLiteral(raw string) value.Value {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return value.NewInt(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.NewDouble(f)
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return value.NewBool(b)
	}
	return value.NewString(raw)
}

func loadCaps(path string) (*bridge.Descriptor, error) {
	if path == "" {
		return bridge.Default(), nil
	}
	m, err := bridge.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return m.Descriptor(), nil
}

// compileFile parses an AST JSON file and compiles it, consulting the
// program cache when one is configured.
func compileFile(path, cachePath string, states stateFlags) (*bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var store *cache.Cache
	key := cache.Key(data)
	if cachePath != "" {
		store, err = cache.Open(cachePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if prog, err := store.Get(key); err == nil {
			log.Debugf("cache hit for %s", path)
			return prog, nil
		}
	}

	mod, err := ast.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	ctx := &bytecode.Context{
		States: states,
		OnUnresolved: func(name string) {
			log.Warningf("unresolved identifier %q, treating as Unit", name)
		},
	}
	prog, err := bytecode.Compile(mod, ctx)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", path, err)
	}

	if store != nil {
		if err := store.Put(key, prog); err != nil {
			log.Errorf("cache write failed: %v", err)
		}
	}
	return prog, nil
}

// loadProgram reads either a compiled program or AST JSON, sniffing by
// suffix.
func loadProgram(path, cachePath string, states stateFlags) (*bytecode.Program, error) {
	if strings.HasSuffix(path, ".brioc") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return bytecode.Unmarshal(data)
	}
	return compileFile(path, cachePath, states)
}

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	out := fs.String("o", "", "output path (default: input with .brioc suffix)")
	capsPath := fs.String("caps", "", "capability manifest (TOML)")
	cachePath := fs.String("cache", "", "program cache database")
	states := stateFlags{}
	fs.Var(states, "state", "declare a state default, name=value (repeatable)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("build: want exactly one input file")
	}
	input := fs.Arg(0)

	// Capabilities gate execution, not compilation; loading here just
	// reports manifest mistakes at build time.
	if _, err := loadCaps(*capsPath); err != nil {
		return err
	}

	prog, err := compileFile(input, *cachePath, states)
	if err != nil {
		return err
	}
	data, err := bytecode.Marshal(prog)
	if err != nil {
		return err
	}

	output := *out
	if output == "" {
		output = strings.TrimSuffix(input, ".json") + ".brioc"
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	log.Infof("wrote %s (%d bytes)", output, len(data))
	return nil
}

// printLogger feeds the VM's print output to stdout.
type printLogger struct{}

func (printLogger) Log(msg string) {
	fmt.Println(msg)
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	capsPath := fs.String("caps", "", "capability manifest (TOML)")
	cachePath := fs.String("cache", "", "program cache database")
	states := stateFlags{}
	fs.Var(states, "state", "seed a state value, name=value (repeatable)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("run: want exactly one input file")
	}

	caps, err := loadCaps(*capsPath)
	if err != nil {
		return err
	}
	prog, err := loadProgram(fs.Arg(0), *cachePath, states)
	if err != nil {
		return err
	}

	vm := bytecode.NewVM(caps)
	vm.SetLogger(printLogger{})
	vm.SetStore(state.NewMemoryStore(states))

	result, err := vm.Run(prog)
	if err != nil {
		if name, ok := bytecode.IsBridgeNotAllowed(err); ok {
			return fmt.Errorf("capability refused: %q (check the manifest)", name)
		}
		return err
	}
	if !result.IsUnit() {
		fmt.Println(result.String())
	}
	return nil
}

func cmdDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	cachePath := fs.String("cache", "", "program cache database")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("disasm: want exactly one input file")
	}
	input := fs.Arg(0)

	prog, err := loadProgram(input, *cachePath, stateFlags{})
	if err != nil {
		return err
	}
	fmt.Print(prog.DisassembleWithName(input))
	return nil
}
