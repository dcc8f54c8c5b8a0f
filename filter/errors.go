package filter

import (
	"fmt"
)

// ParseError reports a row that cannot be evaluated, either because a column
// compared against an integer predicate does not parse as an integer, or
// because the row has fewer columns than a predicate/projection/key needs.
// These are never skipped silently, the whole evaluation surfaces the error.
type ParseError struct {
	Line   string // offending row, empty when the caller only had the column
	Column int    // column index the evaluation was after, 0 based
	Reason string
}

func (self *ParseError) Error() string {
	if self.Line == "" {
		return fmt.Sprintf("parse(column %d): %s", self.Column, self.Reason)
	}
	return fmt.Sprintf("parse(column %d): %s: %q", self.Column, self.Reason, self.Line)
}
