package tsconfig

import (
	"path/filepath"
	"strings"
)

// CommonSourceDir is the directory output paths are computed relative to:
// rootDir when set, otherwise the longest common directory of the
// non-declaration root files.
func (p *Project) CommonSourceDir() string {
	if p.Options.RootDir != "" {
		return p.Options.RootDir
	}
	if p.Options.Composite {
		return p.Dir()
	}

	var common []string
	found := false
	for _, name := range p.FileNames {
		if IsDeclaration(name) {
			continue
		}
		parts := strings.Split(filepath.Dir(name), string(filepath.Separator))
		if !found {
			common, found = parts, true
			continue
		}
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	if !found {
		return p.Dir()
	}
	dir := strings.Join(common, string(filepath.Separator))
	if dir == "" {
		return string(filepath.Separator)
	}
	return dir
}

// OutputFileName returns the logical code output for a source file.
func (p *Project) OutputFileName(file string) string {
	return replaceExt(p.placeIn(file, p.Options.OutDir), p.codeExt(file))
}

// DeclarationFileName returns the logical declaration output for a source
// file.
func (p *Project) DeclarationFileName(file string) string {
	dir := p.Options.DeclarationDir
	if dir == "" {
		dir = p.Options.OutDir
	}
	ext := ".d.ts"
	switch filepath.Ext(file) {
	case ".mts", ".mjs":
		ext = ".d.mts"
	case ".cts", ".cjs":
		ext = ".d.cts"
	}
	return replaceExt(p.placeIn(file, dir), ext)
}

func (p *Project) placeIn(file, dir string) string {
	if dir == "" {
		return file
	}
	rel, err := filepath.Rel(p.CommonSourceDir(), file)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(file)
	}
	return filepath.Join(dir, rel)
}

func (p *Project) codeExt(file string) string {
	switch filepath.Ext(file) {
	case ".mts", ".mjs":
		return ".mjs"
	case ".cts", ".cjs":
		return ".cjs"
	case ".tsx", ".jsx":
		if p.Options.JSXPreserve() {
			return ".jsx"
		}
	}
	return ".js"
}

func replaceExt(file, ext string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ext
}

// BuildInfoPath is where the incremental cache for the project lives, or
// "" when the project is not incremental. A non-empty extname gives every
// target its own file next to the config, unless tsBuildInfoFile is set.
func (p *Project) BuildInfoPath(extname string) string {
	if p.Options.TsBuildInfoFile != "" {
		return p.Options.TsBuildInfoFile
	}
	if !p.Options.IsIncremental() {
		return ""
	}
	base := strings.TrimSuffix(p.ConfigPath, filepath.Ext(p.ConfigPath))
	if extname != "" {
		return base + extname + ".tsbuildinfo"
	}
	if p.Options.OutDir != "" {
		return filepath.Join(p.Options.OutDir, filepath.Base(base)+".tsbuildinfo")
	}
	return base + ".tsbuildinfo"
}
