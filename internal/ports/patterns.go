package ports

// Pattern is one literal name -> replacement pair as it crosses component
// boundaries (pattern files, stored sets, $define directives). Names are
// matched byte for byte; there are no wildcards or escapes.
type Pattern struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// Substituter replaces every occurrence of the longest matching pattern name
// in a source string with that pattern's value. At each offset the longest
// name wins; matched spans are consumed whole and never overlap.
//
// Implementations are not required to be safe for concurrent use. Callers
// that share one Substituter between goroutines serialize Rebuild and
// Substitute themselves.
type Substituter interface {
	// Rebuild replaces the entire pattern set. Previous patterns are
	// discarded. Returns an error for an empty name or a duplicate name.
	Rebuild(patterns []Pattern) error

	// Substitute returns src with all substitutions applied. The input is
	// fully materialized; there is no streaming mode. On error the result
	// is undefined and must be discarded.
	Substitute(src string) (string, error)
}
