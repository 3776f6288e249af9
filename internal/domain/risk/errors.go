package risk

import "fmt"

// ParseError reports a present numeric-looking field whose leading token
// could not be parsed. It names the offending field so callers can reject
// the record as malformed rather than silently defaulting.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q as a number", e.Field, e.Value)
}
