// Package query defines the contract between the database layer and
// externally compiled query templates, plus the cache that keeps compiled
// descriptors hot across calls.
package query

// RenderInput carries everything a descriptor needs to produce final SQL.
type RenderInput struct {
	// Prefix is the configured table prefix, possibly empty.
	Prefix string
	// Args is the keyed argument record supplied by the caller.
	Args map[string]any
	// Columns optionally restricts the selected output columns.
	Columns []string
	// CountOnly renders the COUNT(*) variant of the query: same WHERE/JOIN
	// shape, count projection, no LIMIT or ORDER.
	CountOnly bool
}

// Rendered is the result of rendering a descriptor: a final SQL string and
// the ordered parameter list to bind.
type Rendered struct {
	SQL    string
	Params []any
}

// Descriptor is the compiled, reusable representation of one declared query.
// Descriptors are immutable once compiled and safe to share across callers.
type Descriptor interface {
	Render(in RenderInput) (Rendered, error)
	RequiresPagination() bool
	Navigation() Navigation
}

// Compiler turns a template source file into a Descriptor. Implementations
// live outside this module; the layer only depends on this contract.
type Compiler interface {
	Compile(path string) (Descriptor, error)
}
