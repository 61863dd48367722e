//go:build !cgo

package jsparse

import (
	"context"

	"tsmulti/internal/jsast"
)

// Parser is a stub for non-CGO builds.
type Parser struct{}

// NewParser creates a parser that always fails.
func NewParser() *Parser {
	return &Parser{}
}

// Available reports whether parsing is supported by this build.
func Available() bool { return false }

// Parse returns ErrNoCGO.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*jsast.Module, error) {
	return nil, ErrNoCGO
}
