package vfs

import (
	"encoding/json"
	"regexp"

	"tsmulti/internal/target"
)

// Rewrite returns a System that redirects reads, writes and deletes to the
// physical paths of t, and rewrites map references inside written files.
func Rewrite(base System, t target.Target) System {
	if t.Extname == "" {
		return base
	}
	return &rewriting{base: base, target: t}
}

type rewriting struct {
	base   System
	target target.Target
}

func (r *rewriting) ReadFile(p string) ([]byte, error) {
	if target.IsVendored(p) {
		return r.base.ReadFile(p)
	}
	rewritten := r.target.RewritePath(p)
	data, err := r.base.ReadFile(rewritten)
	if err == nil || rewritten == p || !fallsBack(p) {
		return data, err
	}
	return r.base.ReadFile(p)
}

func (r *rewriting) FileExists(p string) bool {
	if target.IsVendored(p) {
		return r.base.FileExists(p)
	}
	rewritten := r.target.RewritePath(p)
	if r.base.FileExists(rewritten) {
		return true
	}
	return rewritten != p && fallsBack(p) && r.base.FileExists(p)
}

func (r *rewriting) DirectoryExists(p string) bool {
	return r.base.DirectoryExists(p)
}

func (r *rewriting) WriteFile(p string, data []byte) error {
	switch target.KindOf(p) {
	case target.KindCode, target.KindDecl:
		data = []byte(r.target.RewriteSourceMapURL(string(data)))
	case target.KindCodeMap, target.KindDeclMap:
		data = r.rewriteMapFile(data)
	}
	return r.base.WriteFile(r.target.RewritePath(p), data)
}

func (r *rewriting) DeleteFile(p string) error {
	return r.base.DeleteFile(r.target.RewritePath(p))
}

// fallsBack reports whether a read may retry the unrewritten path, which
// allows plain JavaScript and hand-written declarations in the source tree.
func fallsBack(p string) bool {
	switch target.KindOf(p) {
	case target.KindCode, target.KindDecl:
		return true
	}
	return false
}

var mapFileField = regexp.MustCompile(`"file"\s*:\s*"(?:[^"\\]|\\.)*"`)

// rewriteMapFile replaces the "file" field of a source map, leaving the
// rest of the payload byte for byte.
func (r *rewriting) rewriteMapFile(data []byte) []byte {
	var payload struct {
		File string `json:"file"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.File == "" {
		return data
	}
	file, err := json.Marshal(r.target.RewritePath(payload.File))
	if err != nil {
		return data
	}
	replaced := false
	return mapFileField.ReplaceAllFunc(data, func(m []byte) []byte {
		if replaced {
			return m
		}
		replaced = true
		return append([]byte(`"file":`), file...)
	})
}
