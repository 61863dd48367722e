// Package helpers holds the runtime helper routines lowered code calls and
// computes the dependency-closed set a target's consolidated helpers module
// must contain.
package helpers

import (
	"sort"
	"strings"
)

// Package is the module specifier compiled units import shared helpers
// from before it is rewritten to the consolidated helpers file.
const Package = "@tsmulti/helpers"

// Record is one helper routine.
type Record struct {
	Name   string
	Deps   []string
	Source string
}

// Catalog is an immutable table of helpers keyed by name.
type Catalog struct {
	records map[string]Record
}

// NewCatalog builds a catalog. Later records replace earlier ones with the
// same name.
func NewCatalog(records ...Record) *Catalog {
	c := &Catalog{records: make(map[string]Record, len(records))}
	for _, r := range records {
		c.records[r.Name] = r
	}
	return c
}

// Lookup returns the record for name.
func (c *Catalog) Lookup(name string) (Record, bool) {
	r, ok := c.records[name]
	return r, ok
}

// Has reports whether name is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.records[name]
	return ok
}

// Names returns every helper name in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.records))
	for name := range c.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Closure is the result of closing a set of needed helpers.
type Closure struct {
	// Records is the emission order.
	Records []Record
	// Exported holds the needed names that exist in the catalog, in the
	// order they were requested.
	Exported []string
}

// Close expands needed with declared dependencies. Missing dependencies are
// inserted at the front of the sequence, and the scan repeats until a full
// pass inserts nothing. Names missing from the catalog are dropped.
func (c *Catalog) Close(needed []string) Closure {
	seen := make(map[string]bool, len(needed))
	var seq []string
	for _, name := range needed {
		if !c.Has(name) || seen[name] {
			continue
		}
		seen[name] = true
		seq = append(seq, name)
	}
	exported := append([]string(nil), seq...)

	for {
		inserted := false
		snapshot := append([]string(nil), seq...)
		for _, name := range snapshot {
			for _, dep := range c.records[name].Deps {
				if seen[dep] || !c.Has(dep) {
					continue
				}
				seen[dep] = true
				seq = append([]string{dep}, seq...)
				inserted = true
			}
		}
		if !inserted {
			break
		}
	}

	records := make([]Record, len(seq))
	for i, name := range seq {
		records[i] = c.records[name]
	}
	return Closure{Records: records, Exported: exported}
}

// Format selects the export syntax of a rendered helpers module.
type Format int

const (
	FormatESM Format = iota
	FormatCommonJS
)

// Render produces the consolidated helpers module: every record's source in
// closure order, then one export naming the exported helpers.
func Render(cl Closure, format Format) string {
	var sb strings.Builder
	for _, r := range cl.Records {
		sb.WriteString(strings.TrimRight(r.Source, "\n"))
		sb.WriteString("\n")
	}
	names := strings.Join(cl.Exported, ", ")
	switch format {
	case FormatCommonJS:
		sb.WriteString("module.exports = { " + names + " };\n")
	default:
		sb.WriteString("export { " + names + " };\n")
	}
	return sb.String()
}

// Usage accumulates the helper names compiled units reference. Each unit
// records a name at most once, so duplicates only appear across units and
// are removed by Close.
type Usage struct {
	names []string
}

// Record appends names.
func (u *Usage) Record(names ...string) {
	u.names = append(u.names, names...)
}

// Names returns the recorded names in order.
func (u *Usage) Names() []string {
	return append([]string(nil), u.names...)
}

// Len returns the number of recorded names.
func (u *Usage) Len() int {
	return len(u.names)
}
