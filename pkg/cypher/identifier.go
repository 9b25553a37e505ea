// Package cypher provides safety checks applied to generated Cypher before
// it reaches the graph: identifier validation, read-only enforcement, and an
// injection heuristic over string parameters.
package cypher

import (
	"fmt"
	"regexp"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
)

// identifierPattern accepts letters (any script, so Korean labels like 인물
// pass), digits, and underscore. Everything else is rejected before it can
// be interpolated into query text.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_\p{L}]+$`)

// ValidIdentifier reports whether name is safe to interpolate into Cypher as
// a label, relationship type, or property name.
func ValidIdentifier(name string) bool {
	return name != "" && identifierPattern.MatchString(name)
}

// ValidateIdentifier returns ErrInvalidIdentifier when name cannot be safely
// interpolated into query text.
func ValidateIdentifier(name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("identifier %q: %w", name, apperrors.ErrInvalidIdentifier)
	}
	return nil
}

// ValidateIdentifiers checks every name and fails on the first invalid one.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if err := ValidateIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
