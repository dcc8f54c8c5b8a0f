// Package filter evaluates row level predicates against delimited flat-text
// lines. A RowFilter holds an ordered list of predicates, each bound to one
// column, and admits a line only when every predicate matches:
//
//	f := filter.NewRowFilter().
//		Filter(0, filter.EQ, 100).
//		Filter(1, filter.GTE, "2000")
//	ok, err := f.Matches("100 2350 tokyo")
//
// The comparison value's Go type decides how the column is compared, an
// integer value parses the column as an integer, a string value compares
// bytewise. Lines are split only as far as the highest filtered column
// requires, a filter on an early column never forces a full line split.
package filter

import (
	"strings"
)

// DefaultDelimiter is the column delimiter assumed when none is configured,
// a single space. Tab "\t" and comma "," are the usual overrides.
const DefaultDelimiter = " "

// Matcher is the row admission contract shared by the predicate filter and
// the AWK expression filter.
type Matcher interface {
	Matches(line string) (bool, error)
}

// Predicate is one comparison condition bound to a column.
type Predicate struct {
	Column int
	Op     Operator
	Value  Value
}

// Eval evaluates the predicate against an already split row.
func (self *Predicate) Eval(columns []string) (bool, error) {
	if self.Column >= len(columns) {
		return false, &ParseError{
			Column: self.Column,
			Reason: "row has too few columns for predicate",
		}
	}
	diff, err := self.Value.Compare(columns[self.Column])
	if err != nil {
		return false, &ParseError{
			Column: self.Column,
			Reason: err.Error(),
		}
	}
	return self.Op.Match(diff), nil
}

// RowFilter is an ordered list of predicates over one delimited line format.
// The zero predicate filter admits everything.
type RowFilter struct {
	preds      []Predicate
	delimiter  string
	splitLimit int   // highest column index any predicate needs
	err        error // first construction failure, surfaced by Matches
}

// NewRowFilter builds a filter splitting on DefaultDelimiter.
func NewRowFilter() *RowFilter {
	return NewRowFilterDelim(DefaultDelimiter)
}

func NewRowFilterDelim(delimiter string) *RowFilter {
	return &RowFilter{
		delimiter: delimiter,
	}
}

func (self *RowFilter) add(p Predicate) *RowFilter {
	self.preds = append(self.preds, p)

	// the split width only ever grows, later predicates on earlier columns
	// must not shrink it
	if p.Column > self.splitLimit {
		self.splitLimit = p.Column
	}
	return self
}

// Filter appends one predicate and returns the filter itself so conditions
// can be chained. An unsupported value type is latched and reported by the
// first Matches call.
func (self *RowFilter) Filter(
	column int,
	op Operator,
	value interface{},
) *RowFilter {
	v, err := NewValue(value)
	if err != nil {
		if self.err == nil {
			self.err = err
		}
		return self
	}
	return self.add(Predicate{
		Column: column,
		Op:     op,
		Value:  v,
	})
}

// Where appends the predicate described by a condition string, see ParseCond
// for the syntax. Malformed conditions are latched like Filter does.
func (self *RowFilter) Where(cond string) *RowFilter {
	p, err := ParseCond(cond)
	if err != nil {
		if self.err == nil {
			self.err = err
		}
		return self
	}
	return self.add(p)
}

// Size returns the number of registered predicates.
func (self *RowFilter) Size() int { return len(self.preds) }

// Matches reports whether the line satisfies every predicate, in
// registration order, stopping at the first miss. Without predicates it is
// always true.
func (self *RowFilter) Matches(line string) (bool, error) {
	if self.err != nil {
		return false, self.err
	}
	if len(self.preds) == 0 {
		return true, nil
	}

	columns := strings.SplitN(line, self.delimiter, self.splitLimit+2)

	for i := 0; i < len(self.preds); i++ {
		ok, err := self.preds[i].Eval(columns)
		if err != nil {
			if pe, yes := err.(*ParseError); yes && pe.Line == "" {
				pe.Line = line
			}
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
