// Package join merges two key sorted relations into their inner join. The
// Merge driver walks two grouped scanners in lock step, the Manipulator
// facade wraps the whole pipeline, parallel sorting included:
//
//	m := join.NewManipulator("left.txt", "right.txt")
//	defer m.Cleanup()
//	if err := m.Sort(); err != nil {
//		...
//	}
//	rows, err := m.Join()
package join

import (
	"github.com/dianpeng/flatjoin/relation"
)

// Package defaults, per call overridable through Options.
const (
	// DefaultJoinKey is the join key column assumed by NewOptions, 0 based.
	DefaultJoinKey = 1
)

// Options configures one join invocation. The zero value is legal but joins
// on column 0 with the default delimiter, NewOptions fills the shipped
// defaults instead.
type Options struct {
	LeftKey   int
	RightKey  int
	Delimiter string // empty means relation.DefaultDelimiter

	// explicit output column lists, nil means "none given" and the role's
	// omission rule applies, see relation.Relation
	LeftOutput  []int
	RightOutput []int

	// columns omitted when no output list is given, nil means role default
	LeftOmit  []int
	RightOmit []int
}

// NewOptions returns Options carrying the shipped defaults, both sides keyed
// on DefaultJoinKey.
func NewOptions() Options {
	return Options{
		LeftKey:   DefaultJoinKey,
		RightKey:  DefaultJoinKey,
		Delimiter: relation.DefaultDelimiter,
	}
}

func (self *Options) left(path string) relation.Relation {
	return relation.Relation{
		Path:      path,
		Key:       self.LeftKey,
		Delimiter: self.Delimiter,
		Left:      true,
		Output:    self.LeftOutput,
		Omit:      self.LeftOmit,
	}
}

func (self *Options) right(path string) relation.Relation {
	return relation.Relation{
		Path:      path,
		Key:       self.RightKey,
		Delimiter: self.Delimiter,
		Output:    self.RightOutput,
		Omit:      self.RightOmit,
	}
}

// ----------------------------------------------------------------------------
// Merge phase. Textbook sort merge restricted to inner join semantics. Both
// scanners are primed once, then whichever side holds the smaller key
// advances until the keys meet, and a key match expands into the cartesian
// product of the two groups, left row major. Groups without a partner on the
// other side are dropped silently, there is no outer variant.
// ----------------------------------------------------------------------------

// Merge drives the two scanners to completion and returns the joined rows.
// It owns both scanners and closes them no matter how the merge ends, a
// group can still be buffered when the loop stops.
func Merge(left, right *relation.Scanner) ([]string, error) {
	defer left.Close()
	defer right.Close()

	out := []string{}

	lok, err := left.Advance()
	if err != nil {
		return nil, err
	}
	rok, err := right.Advance()
	if err != nil {
		return nil, err
	}

	for lok && rok {
		lkey := left.Key()
		rkey := right.Key()

		switch {
		case lkey == rkey:
			for _, lr := range left.Group() {
				for _, rr := range right.Group() {
					out = append(out, lr.Line+rr.Line)
				}
			}
			if lok, err = left.Advance(); err != nil {
				return nil, err
			}
			if rok, err = right.Advance(); err != nil {
				return nil, err
			}

		case lkey < rkey:
			// left is behind
			if lok, err = left.Advance(); err != nil {
				return nil, err
			}

		default:
			if rok, err = right.Advance(); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Join opens both relations, assumed already sorted by their key columns,
// and merge joins them per the options.
func Join(
	leftPath string,
	rightPath string,
	opts Options,
) ([]string, error) {
	ls, err := relation.OpenScanner(opts.left(leftPath))
	if err != nil {
		return nil, err
	}
	rs, err := relation.OpenScanner(opts.right(rightPath))
	if err != nil {
		ls.Close()
		return nil, err
	}
	return Merge(ls, rs)
}
