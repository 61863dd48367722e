package tsconfig

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"tsmulti/internal/errors"
)

// LoadGraph loads the given projects and everything they reference, and
// returns them in build order: references before the projects that
// reference them. A project listed twice is built once.
func LoadGraph(fs afero.Fs, roots []string) ([]*Project, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	loaded := make(map[string]*Project)
	var order []*Project
	var stack []string

	var visit func(path string) error
	visit = func(path string) error {
		abs, err := filepath.Abs(ResolveConfigPath(fs, path))
		if err != nil {
			return errors.New(errors.ProjectNotFound, path, err)
		}
		switch state[abs] {
		case done:
			return nil
		case visiting:
			return errors.Newf(errors.ProjectCycle, "project references form a cycle: %s",
				strings.Join(append(stack, abs), " -> "))
		}

		p, ok := loaded[abs]
		if !ok {
			if p, err = Load(fs, abs); err != nil {
				return err
			}
			loaded[abs] = p
		}

		state[abs] = visiting
		stack = append(stack, abs)
		for _, ref := range p.References {
			if err := visit(ref); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[abs] = done
		order = append(order, p)
		return nil
	}

	for _, root := range roots {
		if err := visit(root); err != nil {
			return nil, err
		}
	}
	return order, nil
}
