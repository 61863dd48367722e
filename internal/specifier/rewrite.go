// Package specifier rewrites the module references of compiled units so
// they resolve under a target's extension and directory-index conventions.
package specifier

import (
	"path"
	"path/filepath"
	"strings"

	"tsmulti/internal/helpers"
	"tsmulti/internal/jsast"
	"tsmulti/internal/target"
	"tsmulti/internal/vfs"
)

// SiteKind is the syntactic shape a module reference appears in.
type SiteKind int

const (
	StaticImport SiteKind = iota
	ExportFrom
	DynamicImport
	Require
)

func (k SiteKind) String() string {
	switch k {
	case StaticImport:
		return "import"
	case ExportFrom:
		return "export-from"
	case DynamicImport:
		return "dynamic-import"
	case Require:
		return "require"
	}
	return "unknown"
}

// Site is one module reference.
type Site struct {
	Kind      SiteKind
	Specifier string
	// Synthesized marks references the compiler created rather than the
	// user wrote.
	Synthesized bool
	// Module is the source path of the owning module. Empty means the
	// context's ModulePath.
	Module string
}

// Context is the per-module rewrite state. A Context belongs to one target
// and is never shared across targets.
type Context struct {
	// ModulePath is the source path of the module being rewritten.
	ModulePath string
	Target     target.Target
	// HelpersPath is the consolidated helpers module in source coordinates.
	// Empty disables helper sharing.
	HelpersPath       string
	ResolveJSONModule bool
	// FS answers existence checks. Paths are resolved against the owning
	// module's directory.
	FS vfs.System
	// Usage receives the unscoped helpers each rewritten module references.
	Usage *helpers.Usage

	helperRequires map[*jsast.ECall]struct{}
	checks         []vfs.Check
}

// ForModule returns a copy of c for another module of the same build.
// Usage is shared; helper require marks and recorded checks are not.
func (c *Context) ForModule(modulePath string) *Context {
	next := *c
	next.ModulePath = modulePath
	next.helperRequires = nil
	next.checks = nil
	return &next
}

// Checks returns the existence checks made through c, in order.
func (c *Context) Checks() []vfs.Check {
	return c.checks
}

func (c *Context) fileExists(path string) bool {
	return c.check(vfs.Check{Path: path})
}

func (c *Context) dirExists(path string) bool {
	return c.check(vfs.Check{Path: path, Dir: true})
}

func (c *Context) check(chk vfs.Check) bool {
	if chk.Dir {
		chk.Exists = c.FS.DirectoryExists(chk.Path)
	} else {
		chk.Exists = c.FS.FileExists(chk.Path)
	}
	for _, seen := range c.checks {
		if seen == chk {
			return chk.Exists
		}
	}
	c.checks = append(c.checks, chk)
	return chk.Exists
}

// SharesHelpers reports whether helper consolidation is enabled.
func (c *Context) SharesHelpers() bool {
	return c.HelpersPath != ""
}

// MarkHelperRequire records that call is the require of a synthesized
// helper binding.
func (c *Context) MarkHelperRequire(call *jsast.ECall) {
	if c.helperRequires == nil {
		c.helperRequires = make(map[*jsast.ECall]struct{})
	}
	c.helperRequires[call] = struct{}{}
}

// IsHelperRequire reports whether MarkHelperRequire was called for call.
func (c *Context) IsHelperRequire(call *jsast.ECall) bool {
	_, ok := c.helperRequires[call]
	return ok
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// plainExts are stripped before the target extension is appended.
var plainExts = []string{".js", ".ts", ".tsx", ".jsx"}

// fixedExts are left alone regardless of the target.
var fixedExts = map[string]bool{
	".mjs": true,
	".cjs": true,
}

// moduleSourceExts name sources whose emitted extension is fixed by the
// source suffix rather than the target.
var moduleSourceExts = map[string]string{
	".mts": ".mjs",
	".cts": ".cjs",
}

// Rewrite returns the specifier site should use under the context's target.
func Rewrite(site Site, ctx *Context) string {
	spec := site.Specifier
	module := site.Module
	if module == "" {
		module = ctx.ModulePath
	}

	if ctx.SharesHelpers() && site.Synthesized && spec == helpers.Package {
		return ctx.helpersSpecifier(module)
	}
	if !isRelative(spec) {
		return spec
	}

	ext := path.Ext(spec)
	if ext == ".json" && ctx.ResolveJSONModule {
		return spec
	}
	if fixedExts[ext] {
		return spec
	}
	if emitted, ok := moduleSourceExts[ext]; ok {
		return strings.TrimSuffix(spec, ext) + emitted
	}

	codeExt := ctx.Target.CodeExt()
	base := spec
	if strings.HasSuffix(spec, codeExt) {
		base = strings.TrimSuffix(spec, codeExt)
	} else {
		for _, plain := range plainExts {
			if ext == plain {
				base = strings.TrimSuffix(spec, plain)
				break
			}
		}
	}

	if ctx.FS != nil {
		dir := filepath.Dir(module)
		resolve := func(p string) string { return filepath.Join(dir, filepath.FromSlash(p)) }
		if !ctx.fileExists(resolve(base+".ts")) && !ctx.fileExists(resolve(base+".js")) &&
			ctx.dirExists(resolve(spec)) {
			return spec + "/index" + codeExt
		}
	}
	return base + codeExt
}

// helpersSpecifier is the relative reference from module to the helpers
// file, carrying the target's extension.
func (c *Context) helpersSpecifier(module string) string {
	helpersPath := c.Target.RewritePath(c.HelpersPath)
	rel, err := filepath.Rel(filepath.Dir(module), helpersPath)
	if err != nil {
		rel = helpersPath
	}
	rel = filepath.ToSlash(rel)
	if !isRelative(rel) {
		rel = "./" + rel
	}
	return rel
}
