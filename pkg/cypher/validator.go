package cypher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMultipleStatements indicates the query contains multiple statements.
	ErrMultipleStatements = errors.New("multiple statements not allowed; only single queries are permitted")

	// ErrWriteClause indicates a generated query tried to modify the graph.
	ErrWriteClause = errors.New("write clauses not allowed in generated queries")
)

// writeClausePattern matches Cypher clauses that modify the graph. Word
// boundaries keep property names like "createdAt" from matching.
var writeClausePattern = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH|LOAD\s+CSV)\b`)

// ValidationResult contains the normalized query and any validation error.
type ValidationResult struct {
	NormalizedCypher string
	Error            error
}

// ValidateAndNormalize checks a generated Cypher query before execution:
// strips a trailing semicolon, rejects stacked statements, and rejects write
// clauses. Generated queries are read-only; writes go through repositories
// with hand-written Cypher.
func ValidateAndNormalize(query string) ValidationResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return ValidationResult{NormalizedCypher: query}
	}

	normalized := strings.TrimSpace(strings.TrimSuffix(query, ";"))

	if hasSemicolonOutsideStrings(normalized) {
		return ValidationResult{Error: ErrMultipleStatements}
	}

	if m := writeClausePattern.FindString(stripStringLiterals(normalized)); m != "" {
		return ValidationResult{Error: fmt.Errorf("clause %s: %w", strings.ToUpper(m), ErrWriteClause)}
	}

	return ValidationResult{NormalizedCypher: normalized}
}

// hasSemicolonOutsideStrings returns true if the query contains a semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(query string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range query {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// stripStringLiterals blanks out quoted literals so clause detection cannot
// trip on words inside user-visible strings.
func stripStringLiterals(query string) string {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	var out strings.Builder
	state := stateNormal
	prevChar := rune(0)

	for _, char := range query {
		switch state {
		case stateNormal:
			switch char {
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			default:
				out.WriteRune(char)
			}
		case stateSingleQuote:
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return out.String()
}
