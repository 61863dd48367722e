// Package compiler turns one source file into an emitted module tree.
//
// A Compiler strips types, converts the module format and lowers syntax
// for the configured language level. It does not type check. When
// Options.ImportHelpers is set the runtime helpers a file needs are not
// left inline but imported from helpers.Package, and the module records
// which helpers it references.
package compiler

import (
	"context"
	"strings"

	"tsmulti/internal/errors"
	"tsmulti/internal/jsast"
	"tsmulti/internal/report"
	"tsmulti/internal/target"
	"tsmulti/internal/tsconfig"
)

// DefaultName is the compiler used when none is configured.
const DefaultName = "esbuild"

// Input is one file to compile.
type Input struct {
	// FileName is the absolute source path.
	FileName string
	Source   []byte
	// OutputName is the logical path of the emitted code file.
	OutputName string
	Target     target.Target
	Options    tsconfig.CompilerOptions
}

// Output is the result of compiling one file.
type Output struct {
	// Module is nil when the file failed to compile.
	Module *jsast.Module
	// SourceMap is the external source map, or nil.
	SourceMap []byte
	// Declaration is the emitted declaration file, or nil.
	Declaration *jsast.Module
	Diagnostics []report.Diagnostic
}

// HasErrors reports whether any diagnostic is an error.
func (o *Output) HasErrors() bool {
	for _, d := range o.Diagnostics {
		if d.Category == report.CategoryError {
			return true
		}
	}
	return false
}

// Compiler compiles source files. Implementations are not required to be
// safe for concurrent use; each build worker creates its own.
type Compiler interface {
	Transpile(ctx context.Context, in Input) (*Output, error)
	// TranspileHelpers lowers the consolidated helpers module source for
	// the target and returns the code to write.
	TranspileHelpers(ctx context.Context, source string, t target.Target, opts tsconfig.CompilerOptions) (string, error)
}

// Factory creates a Compiler.
type Factory func() Compiler

var factories = map[string]Factory{
	DefaultName: func() Compiler { return NewEsbuild() },
}

// Lookup returns the factory registered under name. An empty name selects
// DefaultName.
func Lookup(name string) (Factory, error) {
	if name == "" {
		name = DefaultName
	}
	f, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, errors.Newf(errors.ConfigInvalid, "unknown compiler %q", name)
	}
	return f, nil
}

// EmitsESM reports whether in produces ES module syntax. The target's
// module kind wins over the project's.
func EmitsESM(t target.Target, opts tsconfig.CompilerOptions) bool {
	if t.Module == "" {
		t.Module = target.ModuleKind(strings.ToLower(opts.Module))
	}
	return t.IsESM()
}
