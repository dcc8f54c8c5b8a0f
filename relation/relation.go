// Package relation reads one side of a join: it sorts a delimited flat-text
// file by a key column and scans the sorted file one key group at a time.
//
// Given temp.tmp with
//
//	001 aaa bbb ccc
//	001 aaa ddd eee
//	003 ggg hhh iii
//
// the grouped scan walks runs of equal keys:
//
//	sc, err := relation.OpenScanner(relation.Relation{
//		Path: "temp.tmp",
//		Key:  0,
//		Left: true,
//	})
//	defer sc.Close()
//	for {
//		ok, err := sc.Advance()
//		if err != nil || !ok {
//			break
//		}
//		for _, row := range sc.Group() {
//			fmt.Println(row.Line)
//		}
//	}
package relation

import (
	"github.com/dianpeng/flatjoin/filter"
	"strings"
)

// Package defaults. Every one of them is per-call overridable, they only
// kick in where a Relation or Sorter leaves the field unset.
const (
	// DefaultDelimiter mirrors the filter package default, a single space.
	DefaultDelimiter = filter.DefaultDelimiter

	// DefaultSortKey is the column a Sorter orders by when none is given,
	// 0 based.
	DefaultSortKey = 1

	// SortedFilePrefix and SortedFileSuffix name the temp files produced by
	// Sorter.SortToFile.
	SortedFilePrefix = "sort"
	SortedFileSuffix = ".tmp"
)

// Default omitted columns per role when a relation has neither an explicit
// output list nor an omit list. The right side drops its leading two columns
// since those usually duplicate the join key the left side already carries.
var (
	DefaultOmitLeft  = []int{}
	DefaultOmitRight = []int{0, 1}
)

// Relation describes one side of a join over a sorted file.
type Relation struct {
	Path      string
	Key       int    // join key column, 0 based
	Delimiter string // empty means DefaultDelimiter
	Left      bool   // left or right role

	// Output lists the exact columns a scanned row keeps, in order. nil
	// means "no explicit list", which falls back to omission below. A non
	// nil empty list projects every row to the empty string.
	Output []int

	// Omit lists columns dropped when Output is nil. nil means the role
	// default, a non nil empty list omits nothing.
	Omit []int
}

func (self *Relation) delimiter() string {
	if self.Delimiter == "" {
		return DefaultDelimiter
	}
	return self.Delimiter
}

func (self *Relation) omitSet() map[int]bool {
	omit := self.Omit
	if omit == nil {
		if self.Left {
			omit = DefaultOmitLeft
		} else {
			omit = DefaultOmitRight
		}
	}

	out := make(map[int]bool)
	for _, c := range omit {
		out[c] = true
	}
	return out
}

// Row is one scanned line of a relation. Line is the formatted output string,
// computed once when the row is read and immutable afterwards. Key is the
// raw join key column value.
type Row struct {
	Line string
	Key  string
}

// keyAt pulls the key column out of a raw line, splitting only as many parts
// as the key index needs.
func keyAt(
	line string,
	key int,
	delimiter string,
) (string, error) {
	columns := strings.SplitN(line, delimiter, key+2)
	if key >= len(columns) {
		return "", &filter.ParseError{
			Line:   line,
			Column: key,
			Reason: "row has too few columns for key",
		}
	}
	return columns[key], nil
}
