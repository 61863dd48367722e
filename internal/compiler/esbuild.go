package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"tsmulti/internal/errors"
	"tsmulti/internal/helpers"
	"tsmulti/internal/jsparse"
	"tsmulti/internal/report"
	"tsmulti/internal/target"
	"tsmulti/internal/tsconfig"
)

// Esbuild compiles with esbuild's transform API and parses the result
// with tree-sitter.
type Esbuild struct {
	parser  *jsparse.Parser
	catalog *helpers.Catalog
}

// NewEsbuild creates an esbuild compiler using the default helper catalog.
func NewEsbuild() *Esbuild {
	return &Esbuild{
		parser:  jsparse.NewParser(),
		catalog: helpers.Default,
	}
}

var languageLevels = map[string]api.Target{
	"es3":    api.ES2015,
	"es5":    api.ES2015,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ESNext,
	"esnext": api.ESNext,
	"":       api.ESNext,
}

func languageLevel(name string) (api.Target, bool) {
	level, ok := languageLevels[strings.ToLower(name)]
	return level, ok
}

func loaderFor(name string) api.Loader {
	switch filepath.Ext(name) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	case ".json":
		return api.LoaderJSON
	default:
		return api.LoaderJS
	}
}

// tsconfigRaw carries the compiler options esbuild reads from a tsconfig.
type tsconfigRaw struct {
	CompilerOptions struct {
		Target                  string `json:"target,omitempty"`
		ExperimentalDecorators  bool   `json:"experimentalDecorators,omitempty"`
		UseDefineForClassFields *bool  `json:"useDefineForClassFields,omitempty"`
		VerbatimModuleSyntax    bool   `json:"verbatimModuleSyntax,omitempty"`
		JSX                     string `json:"jsx,omitempty"`
		JSXFactory              string `json:"jsxFactory,omitempty"`
		JSXFragmentFactory      string `json:"jsxFragmentFactory,omitempty"`
		JSXImportSource         string `json:"jsxImportSource,omitempty"`
	} `json:"compilerOptions"`
}

func transformOptions(t target.Target, opts tsconfig.CompilerOptions) (api.TransformOptions, []report.Diagnostic) {
	var diags []report.Diagnostic
	level, ok := languageLevel(opts.Target)
	if !ok {
		diags = append(diags, report.Diagnostic{
			Category: report.CategoryWarning,
			Message:  fmt.Sprintf("unknown target %q, emitting esnext", opts.Target),
		})
		level = api.ESNext
	}

	var raw tsconfigRaw
	raw.CompilerOptions.Target = opts.Target
	raw.CompilerOptions.ExperimentalDecorators = opts.ExperimentalDecorators
	raw.CompilerOptions.UseDefineForClassFields = opts.UseDefineForClassFields
	raw.CompilerOptions.VerbatimModuleSyntax = opts.VerbatimModuleSyntax
	raw.CompilerOptions.JSX = opts.JSX
	raw.CompilerOptions.JSXFactory = opts.JSXFactory
	raw.CompilerOptions.JSXFragmentFactory = opts.JSXFragmentFactory
	raw.CompilerOptions.JSXImportSource = opts.JSXImportSource
	rawJSON, _ := json.Marshal(raw)

	format := api.FormatCommonJS
	if EmitsESM(t, opts) {
		format = api.FormatESModule
	}

	to := api.TransformOptions{
		Target:      level,
		Format:      format,
		Platform:    api.PlatformNeutral,
		LogLevel:    api.LogLevelSilent,
		TsconfigRaw: string(rawJSON),
		Charset:     api.CharsetUTF8,
	}
	if opts.JSXPreserve() {
		to.JSX = api.JSXPreserve
	}
	if !opts.RemoveComments {
		to.LegalComments = api.LegalCommentsInline
	}
	return to, diags
}

// Transpile compiles one file. Syntax errors are returned as diagnostics
// with a nil Module; the error return is for failures of the compiler
// itself.
func (e *Esbuild) Transpile(ctx context.Context, in Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts, diags := transformOptions(in.Target, in.Options)
	opts.Loader = loaderFor(in.FileName)
	opts.Sourcefile = sourceFile(in)
	switch {
	case in.Options.InlineSourceMap:
		opts.Sourcemap = api.SourceMapInline
	case in.Options.SourceMap:
		opts.Sourcemap = api.SourceMapExternal
	}
	opts.SourcesContent = api.SourcesContentExclude
	if in.Options.InlineSources {
		opts.SourcesContent = api.SourcesContentInclude
	}

	result := api.Transform(string(in.Source), opts)
	out := &Output{Diagnostics: diags}
	for i := range out.Diagnostics {
		out.Diagnostics[i].File = in.FileName
	}
	out.Diagnostics = append(out.Diagnostics, messages(in.FileName, result.Errors, report.CategoryError)...)
	out.Diagnostics = append(out.Diagnostics, messages(in.FileName, result.Warnings, report.CategoryWarning)...)
	if len(result.Errors) > 0 {
		return out, nil
	}

	m, err := e.parser.Parse(ctx, in.OutputName, result.Code)
	if err != nil {
		return nil, errors.New(errors.CompileFailed, fmt.Sprintf("cannot parse output of %s", in.FileName), err)
	}
	if in.Options.ImportHelpers {
		liftHelpers(m, e.catalog, EmitsESM(in.Target, in.Options))
	}
	annotateTemporaries(m)
	out.Module = m

	if len(result.Map) > 0 {
		if out.SourceMap, err = withFile(result.Map, filepath.Base(in.OutputName)); err != nil {
			return nil, errors.New(errors.CompileFailed, fmt.Sprintf("invalid source map for %s", in.FileName), err)
		}
	}
	return out, nil
}

// TranspileHelpers lowers the helpers module for the target. The source
// is already in the target's module format.
func (e *Esbuild) TranspileHelpers(ctx context.Context, source string, t target.Target, opts tsconfig.CompilerOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	to, _ := transformOptions(t, opts)
	to.Loader = api.LoaderJS
	to.Format = api.FormatDefault
	to.Sourcefile = "helpers.js"

	result := api.Transform(source, to)
	if len(result.Errors) > 0 {
		msg := result.Errors[0].Text
		return "", errors.Newf(errors.CompileFailed, "cannot compile helpers: %s", msg)
	}
	return string(result.Code), nil
}

// sourceFile is the name the source map refers to: the source path
// relative to the output directory.
func sourceFile(in Input) string {
	if in.OutputName == "" {
		return filepath.Base(in.FileName)
	}
	rel, err := filepath.Rel(filepath.Dir(in.OutputName), in.FileName)
	if err != nil {
		return filepath.Base(in.FileName)
	}
	return filepath.ToSlash(rel)
}

func messages(file string, msgs []api.Message, category report.Category) []report.Diagnostic {
	out := make([]report.Diagnostic, 0, len(msgs))
	for _, msg := range msgs {
		d := report.Diagnostic{File: file, Category: category, Message: msg.Text}
		if msg.Location != nil {
			d.Line = msg.Location.Line
			d.Column = msg.Location.Column + 1
		}
		out = append(out, d)
	}
	return out
}

// sourceMap orders fields the way emitted maps usually are.
type sourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

func withFile(data []byte, file string) ([]byte, error) {
	var m sourceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.File = file
	if m.Names == nil {
		m.Names = []string{}
	}
	return json.Marshal(m)
}
