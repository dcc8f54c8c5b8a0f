package relation

import (
	"bufio"
	"github.com/dianpeng/flatjoin/filter"
	"github.com/pkg/errors"
	"os"
	"sort"
)

// ----------------------------------------------------------------------------
// Sorting stage. A Sorter materializes one relation fully in memory, drops
// the lines its filters reject, and stable sorts the rest by the key column,
// compared bytewise. Stability matters: downstream grouping assumes equal
// keys keep their input order. The key is extracted once per line while
// reading, with the split bounded to key+2 parts, so the comparator itself
// never touches the raw line again.
// ----------------------------------------------------------------------------

type keyedLine struct {
	line string
	key  string
}

// Sorter sorts one delimited file by a key column, with optional row
// filtering ahead of the sort:
//
//	lines, err := relation.NewSorter("temp.tmp").
//		Filter(0, filter.EQ, 100).
//		Filter(1, filter.GTE, 2000).
//		Sort()
type Sorter struct {
	path      string
	key       int
	delimiter string
	filter    *filter.RowFilter
	matchers  []filter.Matcher // extra matchers beyond the predicate filter
	err       error            // latched configuration failure
}

// NewSorter builds a sorter with the default key column and delimiter.
func NewSorter(path string) *Sorter {
	return NewSorterConfig(path, DefaultSortKey, DefaultDelimiter)
}

// NewSorterKey builds a sorter with the default delimiter.
func NewSorterKey(path string, key int) *Sorter {
	return NewSorterConfig(path, key, DefaultDelimiter)
}

func NewSorterConfig(path string, key int, delimiter string) *Sorter {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Sorter{
		path:      path,
		key:       key,
		delimiter: delimiter,
		filter:    filter.NewRowFilterDelim(delimiter),
	}
}

// Filter chains one predicate onto the sorter's row filter, lines failing it
// never enter the sort.
func (self *Sorter) Filter(
	column int,
	op filter.Operator,
	value interface{},
) *Sorter {
	self.filter.Filter(column, op, value)
	return self
}

// Where chains the predicate described by a condition string.
func (self *Sorter) Where(cond string) *Sorter {
	self.filter.Where(cond)
	return self
}

// Match attaches an extra row matcher, evaluated after the predicate filter
// in attach order.
func (self *Sorter) Match(m filter.Matcher) *Sorter {
	self.matchers = append(self.matchers, m)
	return self
}

// Expr attaches an AWK condition as a row matcher. A malformed condition is
// latched and surfaced by Sort.
func (self *Sorter) Expr(cond string) *Sorter {
	m, err := filter.NewExpr(cond, self.delimiter)
	if err != nil {
		if self.err == nil {
			self.err = err
		}
		return self
	}
	return self.Match(m)
}

func (self *Sorter) admit(line string) (bool, error) {
	ok, err := self.filter.Matches(line)
	if err != nil || !ok {
		return false, err
	}
	for _, m := range self.matchers {
		ok, err := m.Matches(line)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (self *Sorter) read() ([]keyedLine, error) {
	if self.err != nil {
		return nil, self.err
	}

	f, err := os.Open(self.path)
	if err != nil {
		return nil, errors.Wrapf(err, "sorter: relation %s", self.path)
	}
	defer f.Close()

	out := []keyedLine{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		ok, err := self.admit(line)
		if err != nil {
			return nil, errors.Wrapf(err, "sorter: relation %s", self.path)
		}
		if !ok {
			continue
		}

		key, err := keyAt(line, self.key, self.delimiter)
		if err != nil {
			return nil, errors.Wrapf(err, "sorter: relation %s", self.path)
		}

		out = append(out, keyedLine{
			line: line,
			key:  key,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "sorter: relation %s", self.path)
	}
	return out, nil
}

// Sort returns the admitted lines ordered by key column, ties keeping their
// input order.
func (self *Sorter) Sort() ([]string, error) {
	list, err := self.read()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(
		list,
		func(i, j int) bool {
			return list[i].key < list[j].key
		},
	)

	out := make([]string, 0, len(list))
	for _, kl := range list {
		out = append(out, kl.line)
	}
	return out, nil
}

// SortToFile runs Sort and writes the result to a fresh temp file, one line
// per row. The caller owns the returned path and is responsible for deleting
// it once no longer needed.
func (self *Sorter) SortToFile() (string, error) {
	lines, err := self.Sort()
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(
		"",
		SortedFilePrefix+"*"+SortedFileSuffix,
	)
	if err != nil {
		return "", errors.Wrap(err, "sorter: create temp file")
	}

	// bufio latches the first write failure, Flush reports it
	w := bufio.NewWriter(f)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrapf(err, "sorter: write %s", f.Name())
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.Wrapf(err, "sorter: close %s", f.Name())
	}
	return f.Name(), nil
}
