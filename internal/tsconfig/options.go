package tsconfig

import (
	"encoding/json"
	"strings"
)

// CompilerOptions is the subset of compiler options the build reads.
// Unknown options are kept in Project.Raw.
type CompilerOptions struct {
	Target          string `json:"target,omitempty"`
	Module          string `json:"module,omitempty"`
	OutDir          string `json:"outDir,omitempty"`
	RootDir         string `json:"rootDir,omitempty"`
	DeclarationDir  string `json:"declarationDir,omitempty"`
	TsBuildInfoFile string `json:"tsBuildInfoFile,omitempty"`

	Incremental       bool `json:"incremental,omitempty"`
	Composite         bool `json:"composite,omitempty"`
	SourceMap         bool `json:"sourceMap,omitempty"`
	InlineSourceMap   bool `json:"inlineSourceMap,omitempty"`
	InlineSources     bool `json:"inlineSources,omitempty"`
	Declaration       bool `json:"declaration,omitempty"`
	DeclarationMap    bool `json:"declarationMap,omitempty"`
	AllowJS           bool `json:"allowJs,omitempty"`
	ResolveJSONModule bool `json:"resolveJsonModule,omitempty"`
	ImportHelpers     bool `json:"importHelpers,omitempty"`
	NoEmit            bool `json:"noEmit,omitempty"`
	NoEmitOnError     bool `json:"noEmitOnError,omitempty"`
	RemoveComments    bool `json:"removeComments,omitempty"`

	ExperimentalDecorators  bool  `json:"experimentalDecorators,omitempty"`
	UseDefineForClassFields *bool `json:"useDefineForClassFields,omitempty"`
	VerbatimModuleSyntax    bool  `json:"verbatimModuleSyntax,omitempty"`

	JSX                string `json:"jsx,omitempty"`
	JSXFactory         string `json:"jsxFactory,omitempty"`
	JSXFragmentFactory string `json:"jsxFragmentFactory,omitempty"`
	JSXImportSource    string `json:"jsxImportSource,omitempty"`
}

// IsIncremental reports whether the project keeps a build info file.
func (o CompilerOptions) IsIncremental() bool {
	return o.Incremental || o.Composite
}

// JSXPreserve reports whether JSX is emitted untransformed.
func (o CompilerOptions) JSXPreserve() bool {
	return strings.EqualFold(o.JSX, "preserve")
}

func decodeOptions(raw map[string]interface{}) (CompilerOptions, error) {
	var opts CompilerOptions
	data, err := json.Marshal(raw)
	if err != nil {
		return opts, err
	}
	err = json.Unmarshal(data, &opts)
	return opts, err
}
