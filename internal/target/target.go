// Package target describes build variants and maps logical output paths to
// their per-target physical paths.
package target

import (
	"path"
	"regexp"
	"strings"
)

// ModuleKind is the module format a target emits.
type ModuleKind string

const (
	ModuleDefault  ModuleKind = ""
	ModuleCommonJS ModuleKind = "commonjs"
	ModuleESNext   ModuleKind = "esnext"
	ModuleES2015   ModuleKind = "es2015"
	ModuleES2020   ModuleKind = "es2020"
	ModuleES2022   ModuleKind = "es2022"
	ModuleNode16   ModuleKind = "node16"
	ModuleNodeNext ModuleKind = "nodenext"
)

// Target is one build variant. It must not be modified once a build starts.
type Target struct {
	// Extname replaces ".js" on emitted code, e.g. ".mjs". Empty keeps
	// the project's own extensions.
	Extname string     `json:"extname,omitempty" mapstructure:"extname"`
	Module  ModuleKind `json:"module,omitempty" mapstructure:"module"`
	// CompilerOptions overrides the project's compiler options.
	CompilerOptions map[string]interface{} `json:"compilerOptions,omitempty" mapstructure:",remain"`
}

// Name identifies the target in logs and reports.
func (t Target) Name() string {
	switch {
	case t.Extname != "":
		return t.Extname
	case t.Module != "":
		return string(t.Module)
	default:
		return "default"
	}
}

// IsESM reports whether the target emits ES modules. Fixed extensions win
// over the module kind.
func (t Target) IsESM() bool {
	switch {
	case strings.HasSuffix(t.Extname, ".mjs"):
		return true
	case strings.HasSuffix(t.Extname, ".cjs"):
		return false
	}
	switch t.Module {
	case ModuleCommonJS, ModuleDefault, ModuleNode16, ModuleNodeNext:
		return false
	}
	return true
}

// CodeExt is the extension emitted code files get.
func (t Target) CodeExt() string {
	if t.Extname == "" {
		return ".js"
	}
	return t.Extname
}

// DeclExt is the declaration extension matching the code extension.
func (t Target) DeclExt() string {
	return DeclarationExt(t.CodeExt())
}

var declExts = map[string]string{
	".js":  ".d.ts",
	".mjs": ".d.mts",
	".cjs": ".d.cts",
}

// DeclarationExt maps a code extension to its declaration extension.
// Extensions outside the fixed table map by their final segment.
func DeclarationExt(ext string) string {
	if d, ok := declExts[ext]; ok {
		return d
	}
	switch {
	case strings.HasSuffix(ext, ".mjs"):
		return ".d.mts"
	case strings.HasSuffix(ext, ".cjs"):
		return ".d.cts"
	}
	return ".d.ts"
}

// FileKind classifies a logical output path by suffix.
type FileKind int

const (
	KindOther FileKind = iota
	KindCode
	KindCodeMap
	KindDecl
	KindDeclMap
)

// KindOf returns the kind of a logical path.
func KindOf(p string) FileKind {
	switch {
	case strings.HasSuffix(p, ".d.ts.map"):
		return KindDeclMap
	case strings.HasSuffix(p, ".d.ts"):
		return KindDecl
	case strings.HasSuffix(p, ".js.map"):
		return KindCodeMap
	case strings.HasSuffix(p, ".js"):
		return KindCode
	}
	return KindOther
}

// RewritePath maps a logical path to the target's physical path. Paths
// with other suffixes, and every path of a target without Extname, are
// returned unchanged.
func (t Target) RewritePath(p string) string {
	if t.Extname == "" {
		return p
	}
	switch KindOf(p) {
	case KindDeclMap:
		return strings.TrimSuffix(p, ".d.ts.map") + t.DeclExt() + ".map"
	case KindDecl:
		return strings.TrimSuffix(p, ".d.ts") + t.DeclExt()
	case KindCodeMap:
		return strings.TrimSuffix(p, ".js.map") + t.Extname + ".map"
	case KindCode:
		return strings.TrimSuffix(p, ".js") + t.Extname
	}
	return p
}

var sourceMapURL = regexp.MustCompile(`//# sourceMappingURL=(.+)`)

// RewriteSourceMapURL rewrites the map reference embedded in emitted code
// or declaration text.
func (t Target) RewriteSourceMapURL(text string) string {
	if t.Extname == "" {
		return text
	}
	return sourceMapURL.ReplaceAllStringFunc(text, func(m string) string {
		url := strings.TrimPrefix(m, "//# sourceMappingURL=")
		return "//# sourceMappingURL=" + t.RewritePath(url)
	})
}

// IsVendored reports whether p lies inside a dependency directory.
func IsVendored(p string) bool {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.Contains(p+"/", "/node_modules/")
}
