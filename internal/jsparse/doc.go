// Package jsparse turns emitted JavaScript into a jsast.Module using
// tree-sitter. It needs CGO; without it every Parse call fails with ErrNoCGO.
package jsparse

import (
	"tsmulti/internal/errors"
)

// ErrNoCGO is returned when parsing is unavailable due to missing CGO.
var ErrNoCGO = errors.Newf(errors.ParserUnavailable, "module parsing requires CGO (tree-sitter)")
